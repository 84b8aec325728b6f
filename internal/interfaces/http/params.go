package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// page lee limit/offset de la query con los topes de dto.PageRequest.
func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}

// queryTime acepta RFC3339 o fecha YYYY-MM-DD. Vacío devuelve nil.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(key, "fecha inválida (RFC3339 o YYYY-MM-DD)")
}
