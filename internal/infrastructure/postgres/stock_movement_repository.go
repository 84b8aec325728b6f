package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, type, quantity, previous_stock, new_stock, reason, source,
	reference_id, created_by, created_at`

// StockMovementRepo libro de movimientos sobre PostgreSQL. seq (BIGSERIAL) fija el orden de inserción.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	_, err := r.q.Exec(ctx, `INSERT INTO stock_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PreviousStock, m.NewStock, m.Reason, m.Source,
		nullString(m.ReferenceID), nullString(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List movimientos filtrados, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Source != "" {
		add("source = $%d", f.Source)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.query(ctx, query, args...)
}

// ListByProduct todos los movimientos del producto en orden de inserción.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY seq`, productID)
}

func (r *StockMovementRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m           entity.StockMovement
		referenceID *string
		createdBy   *string
	)
	if err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock,
		&m.Reason, &m.Source, &referenceID, &createdBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.ReferenceID = derefString(referenceID)
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}
