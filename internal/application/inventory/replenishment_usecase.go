package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// idealStockFactor multiplicador sobre el nivel de reorden para el stock objetivo.
var idealStockFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición y la de productos próximos a vencer.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
	defaultDays int
}

// NewReplenishmentUseCase construye el caso de uso. defaultDays es la ventana de vencimiento por defecto.
func NewReplenishmentUseCase(productRepo repository.ProductRepository, defaultDays int) *ReplenishmentUseCase {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &ReplenishmentUseCase{productRepo: productRepo, defaultDays: defaultDays}
}

// GenerateReplenishmentList devuelve los productos en o bajo su nivel de reorden con la cantidad
// sugerida de pedido, ordenados por déficit (mayor primero).
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	products, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(products))
	for _, p := range products {
		suggestions = append(suggestions, Suggest(p))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Deficit != b.Deficit {
			return a.Deficit > b.Deficit
		}
		// Tiebreak: menor stock absoluto primero
		return a.CurrentStock < b.CurrentStock
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// Suggest calcula la sugerencia de pedido para un producto: ceil(reorden*1.5) - stock.
func Suggest(p *entity.Product) dto.ReplenishmentSuggestionDTO {
	ideal := decimal.NewFromInt(p.ReorderLevel).Mul(idealStockFactor).Ceil().IntPart()
	qty := ideal - p.StockQuantity
	if qty < 0 {
		qty = 0
	}
	deficit := p.ReorderLevel - p.StockQuantity
	if deficit < 0 {
		deficit = 0
	}
	return dto.ReplenishmentSuggestionDTO{
		ProductID:          p.ID,
		SKU:                p.SKU,
		ProductName:        p.Name,
		SupplierID:         p.SupplierID,
		CurrentStock:       p.StockQuantity,
		ReorderLevel:       p.ReorderLevel,
		Deficit:            deficit,
		IdealStock:         ideal,
		SuggestedOrderQty:  qty,
		UnitCost:           p.Cost,
		EstimatedOrderCost: p.Cost.Mul(decimal.NewFromInt(qty)),
	}
}

// ExpiringProducts lista los productos con stock cuyo vencimiento más próximo cae en los próximos days días
// (incluye los ya vencidos). days <= 0 usa la ventana por defecto.
func (uc *ReplenishmentUseCase) ExpiringProducts(ctx context.Context, days int, now time.Time) ([]dto.ExpiringProductDTO, error) {
	if days <= 0 {
		days = uc.defaultDays
	}
	products, err := uc.productRepo.ListExpiringBefore(ctx, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpiringProductDTO, 0, len(products))
	for _, p := range products {
		if p.ExpiryDate == nil || p.StockQuantity <= 0 {
			continue
		}
		out = append(out, dto.ExpiringProductDTO{
			ProductID:     p.ID,
			SKU:           p.SKU,
			ProductName:   p.Name,
			StockQuantity: p.StockQuantity,
			ExpiryDate:    *p.ExpiryDate,
			DaysToExpiry:  daysUntil(now, *p.ExpiryDate),
			Expired:       !p.ExpiryDate.After(now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

func daysUntil(now, t time.Time) int {
	return int(t.Sub(now).Hours() / 24)
}
