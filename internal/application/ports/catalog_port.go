package ports

import (
	"context"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
)

// CatalogService puerto del catálogo externo JanAushadhi.
// Los errores de red o HTTP deben envolver domain.ErrUpstream.
type CatalogService interface {
	Search(ctx context.Context, query string) (*dto.JanAushadhiSearchResponse, error)
	// GetByCode devuelve (nil, nil) si el código no existe en el catálogo.
	GetByCode(ctx context.Context, drugCode string) (*dto.JanAushadhiProductDTO, error)
}
