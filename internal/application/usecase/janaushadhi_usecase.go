package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

// JanAushadhiUseCase búsqueda en el catálogo de genéricos e importación como producto local.
type JanAushadhiUseCase struct {
	catalog  ports.CatalogService
	products *ProductUseCase
}

// NewJanAushadhiUseCase construye el caso de uso.
func NewJanAushadhiUseCase(catalog ports.CatalogService, products *ProductUseCase) *JanAushadhiUseCase {
	return &JanAushadhiUseCase{catalog: catalog, products: products}
}

// Search busca en el catálogo (con caché). Requiere al menos 2 caracteres.
func (uc *JanAushadhiUseCase) Search(ctx context.Context, query string) (*dto.JanAushadhiSearchResponse, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < 2 {
		return nil, domain.NewValidationError("search", "mínimo 2 caracteres")
	}
	return uc.catalog.Search(ctx, q)
}

// Import crea un producto local sin stock a partir de una entrada del catálogo.
// El SKU por defecto es JA-<código>.
func (uc *JanAushadhiUseCase) Import(ctx context.Context, actor domain.Actor, in dto.JanAushadhiImportRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(in.DrugCode)
	if code == "" {
		return nil, domain.NewValidationError("drug_code", "es obligatorio")
	}
	item, err := uc.catalog.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		sku = "JA-" + item.DrugCode
	}
	desc := item.UnitSize
	if item.Group != "" {
		desc = strings.TrimSpace(item.Group + " " + item.UnitSize)
	}
	return uc.products.Create(ctx, actor, dto.CreateProductRequest{
		SKU:             sku,
		Name:            item.GenericName,
		Description:     desc,
		Category:        item.Group,
		Manufacturer:    "JanAushadhi",
		ReorderLevel:    in.ReorderLevel,
		UnitPrice:       item.MRP,
		SupplierID:      in.SupplierID,
		JanAushadhiCode: item.DrugCode,
	})
}
