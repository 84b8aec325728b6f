package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHasCode_SoloErroresDePostgres(t *testing.T) {
	unique := fmt.Errorf("insert product: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isForeignKeyViolation(unique))

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, isForeignKeyViolation(fk))

	// Un texto con el código no basta.
	assert.False(t, isUniqueViolation(errors.New("lote 23505 rechazado")))
	assert.False(t, isForeignKeyViolation(errors.New("referencia 23503")))
	assert.False(t, isUniqueViolation(nil))
}
