package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Stock y costo se manejan vía movimientos.
type ProductUseCase struct {
	repo         repository.ProductRepository
	supplierRepo repository.SupplierRepository
	txRunner     inventory.TxRunner
	metrics      ports.WorkflowMetrics
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	txRunner inventory.TxRunner,
	metrics ports.WorkflowMetrics,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, supplierRepo: supplierRepo, txRunner: txRunner, metrics: metrics}
}

// Create crea un producto. El stock inicial se registra como movimiento de entrada (source=initial)
// en la misma transacción que el alta.
func (uc *ProductUseCase) Create(ctx context.Context, actor domain.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	verr := &domain.ValidationError{}
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" {
		verr.Add("sku", "es obligatorio")
	}
	if in.Name == "" {
		verr.Add("name", "es obligatorio")
	}
	if in.StockQuantity < 0 {
		verr.Add("stock_quantity", "no puede ser negativo")
	}
	if in.ReorderLevel < 0 {
		verr.Add("reorder_level", "no puede ser negativo")
	}
	if in.UnitPrice.IsNegative() {
		verr.Add("unit_price", "no puede ser negativo")
	}
	if in.Cost.IsNegative() {
		verr.Add("cost", "no puede ser negativo")
	}
	if err := uc.checkSupplier(ctx, in.SupplierID, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SKU:             in.SKU,
		Name:            in.Name,
		Description:     in.Description,
		Category:        in.Category,
		Manufacturer:    in.Manufacturer,
		StockQuantity:   0,
		ReorderLevel:    in.ReorderLevel,
		UnitPrice:       in.UnitPrice.Round(2),
		Cost:            in.Cost,
		ExpiryDate:      in.ExpiryDate,
		SupplierID:      in.SupplierID,
		JanAushadhiCode: in.JanAushadhiCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if in.StockQuantity == 0 {
			return nil
		}
		var err error
		mov, err = inventory.BookInTx(ctx, movRepo, productRepo, product, inventory.MovementSpec{
			Type:     entity.MovementTypeIn,
			Quantity: in.StockQuantity,
			Source:   entity.MovementSourceInitial,
			Reason:   "Stock inicial",
			UserID:   actor.UserID,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if mov != nil {
		uc.metrics.MovementRecorded(mov.Type, mov.Source, mov.Quantity)
	}
	return toProductResponse(product), nil
}

func (uc *ProductUseCase) checkSupplier(ctx context.Context, supplierID string, verr *domain.ValidationError) error {
	if supplierID == "" {
		return nil
	}
	s, err := uc.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if s == nil {
		verr.Add("supplier_id", "el proveedor no existe")
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(p), nil
}

// List lista productos con filtros y paginación.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)},
	}, nil
}

// Update actualiza los datos descriptivos. Stock y costo no se modifican por aquí.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	verr := &domain.ValidationError{}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			verr.Add("sku", "no puede estar vacío")
		} else if sku != p.SKU {
			other, err := uc.repo.GetBySKU(ctx, sku)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.ErrDuplicate
			}
			p.SKU = sku
		}
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			verr.Add("name", "no puede estar vacío")
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Manufacturer != nil {
		p.Manufacturer = *in.Manufacturer
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			verr.Add("reorder_level", "no puede ser negativo")
		}
		p.ReorderLevel = *in.ReorderLevel
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			verr.Add("unit_price", "no puede ser negativo")
		}
		p.UnitPrice = in.UnitPrice.Round(2)
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = in.ExpiryDate
	}
	if in.SupplierID != nil {
		if err := uc.checkSupplier(ctx, *in.SupplierID, verr); err != nil {
			return nil, err
		}
		p.SupplierID = *in.SupplierID
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// Delete elimina un producto sin movimientos ni órdenes asociadas (ErrConflict en otro caso).
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Manufacturer:    p.Manufacturer,
		StockQuantity:   p.StockQuantity,
		ReorderLevel:    p.ReorderLevel,
		UnitPrice:       p.UnitPrice,
		Cost:            p.Cost,
		ExpiryDate:      p.ExpiryDate,
		SupplierID:      p.SupplierID,
		JanAushadhiCode: p.JanAushadhiCode,
		LowStock:        p.IsLowStock(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
