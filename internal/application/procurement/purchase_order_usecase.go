package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// PurchaseOrderUseCase ciclo de vida de la orden de compra: alta, edición en borrador y
// cambios de estado según la tabla de transiciones.
type PurchaseOrderUseCase struct {
	txRunner     TxRunner
	poRepo       repository.PurchaseOrderRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	notifier     ports.Notifier
	metrics      ports.WorkflowMetrics
	log          *logger.Logger
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(
	txRunner TxRunner,
	poRepo repository.PurchaseOrderRepository,
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	notifier ports.Notifier,
	metrics ports.WorkflowMetrics,
	log *logger.Logger,
) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{
		txRunner:     txRunner,
		poRepo:       poRepo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		notifier:     notifier,
		metrics:      metrics,
		log:          log,
	}
}

// Create registra una orden en borrador. El total se calcula en el servidor.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, actor domain.Actor, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	verr := &domain.ValidationError{}
	if in.SupplierID == "" {
		verr.Add("supplier_id", "es obligatorio")
	} else {
		supplier, err := uc.supplierRepo.GetByID(ctx, in.SupplierID)
		if err != nil {
			return nil, err
		}
		switch {
		case supplier == nil:
			verr.Add("supplier_id", "el proveedor no existe")
		case supplier.Status != entity.SupplierStatusActive:
			verr.Add("supplier_id", "el proveedor está inactivo")
		}
	}
	now := time.Now()
	poID := uuid.New().String()
	items, err := uc.buildItems(ctx, poID, in.Items, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	po := &entity.PurchaseOrder{
		ID:                   poID,
		OrderNumber:          entity.NewDocumentNumber(entity.PrefixPurchaseOrder, now, poID),
		SupplierID:           in.SupplierID,
		Status:               entity.POStatusDraft,
		Items:                items,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                strings.TrimSpace(in.Notes),
		CreatedBy:            actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	po.ComputeTotal()

	err = uc.txRunner.RunProcurement(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		_ repository.PurchaseReceiptRepository,
	) error {
		return poRepo.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// buildItems valida las líneas y las convierte a entidades. Acumula errores en verr.
func (uc *PurchaseOrderUseCase) buildItems(ctx context.Context, poID string, in []dto.PurchaseOrderItemRequest, verr *domain.ValidationError) ([]entity.PurchaseOrderItem, error) {
	if len(in) == 0 {
		verr.Add("items", "debe incluir al menos una línea")
		return nil, nil
	}
	items := make([]entity.PurchaseOrderItem, 0, len(in))
	for i, it := range in {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == "" && strings.TrimSpace(it.ExternalRef) == "" {
			verr.Add(field+".product_id", "indique product_id o external_ref")
		}
		if it.Quantity <= 0 {
			verr.Add(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitPrice.IsNegative() {
			verr.Add(field+".unit_price", "no puede ser negativo")
		}
		name := strings.TrimSpace(it.ProductName)
		if it.ProductID != "" {
			p, err := uc.productRepo.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if p == nil {
				verr.Add(field+".product_id", "el producto no existe")
			} else if name == "" {
				name = p.Name
			}
		}
		if name == "" {
			name = strings.TrimSpace(it.ExternalRef)
		}
		items = append(items, entity.PurchaseOrderItem{
			ID:              uuid.New().String(),
			PurchaseOrderID: poID,
			ProductID:       it.ProductID,
			ExternalRef:     strings.TrimSpace(it.ExternalRef),
			ProductName:     name,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice.Round(2),
		})
	}
	return items, nil
}

// GetByID obtiene la orden con sus líneas.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, id string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.poRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseOrderResponse(po), nil
}

// List lista órdenes filtrando por estado y proveedor.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, filter repository.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	if filter.Status != "" {
		if _, ok := entity.ParsePOStatus(filter.Status); !ok {
			return nil, domain.NewValidationError("status", "estado desconocido")
		}
	}
	list, err := uc.poRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, *toPurchaseOrderResponse(po))
	}
	return &dto.PurchaseOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)},
	}, nil
}

// Update modifica una orden en borrador. Si vienen líneas, reemplazan a las actuales.
func (uc *PurchaseOrderUseCase) Update(ctx context.Context, actor domain.Actor, id string, in dto.UpdatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	verr := &domain.ValidationError{}
	var items []entity.PurchaseOrderItem
	if in.Items != nil {
		var err error
		items, err = uc.buildItems(ctx, id, in.Items, verr)
		if err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var out *entity.PurchaseOrder
	err := uc.txRunner.RunProcurement(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		_ repository.PurchaseReceiptRepository,
	) error {
		po, err := poRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if po.Status != entity.POStatusDraft {
			return fmt.Errorf("%w: solo se pueden editar órdenes en borrador (estado %s)", domain.ErrConflict, po.Status)
		}
		if in.Notes != nil {
			po.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.ExpectedDeliveryDate != nil {
			po.ExpectedDeliveryDate = in.ExpectedDeliveryDate
		}
		if items != nil {
			po.Items = items
			if err := poRepo.ReplaceItems(ctx, po.ID, items); err != nil {
				return err
			}
		}
		po.ComputeTotal()
		po.UpdatedAt = time.Now()
		if err := poRepo.Update(ctx, po); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("po_id", id).Str("user_id", actor.UserID).Msg("orden de compra actualizada")
	return toPurchaseOrderResponse(out), nil
}

// Delete elimina una orden en borrador o cancelada.
func (uc *PurchaseOrderUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.RunProcurement(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		_ repository.PurchaseReceiptRepository,
	) error {
		po, err := poRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if po.Status != entity.POStatusDraft && po.Status != entity.POStatusCancelled {
			return fmt.Errorf("%w: solo se eliminan órdenes en borrador o canceladas (estado %s)", domain.ErrConflict, po.Status)
		}
		return poRepo.Delete(ctx, id)
	})
}

// TransitionStatus aplica un cambio de estado directo. received y partially_received solo se
// alcanzan registrando recepciones; la aprobación exige rol admin.
func (uc *PurchaseOrderUseCase) TransitionStatus(ctx context.Context, actor domain.Actor, id, target string) (*dto.PurchaseOrderResponse, error) {
	to, ok := entity.ParsePOStatus(target)
	if !ok {
		return nil, domain.NewValidationError("status", "estado desconocido: "+target)
	}
	if to.IsReceiptDriven() {
		return nil, domain.NewValidationError("status", "received y partially_received se asignan al registrar recepciones")
	}

	var (
		po   *entity.PurchaseOrder
		from entity.POStatus
	)
	err := uc.txRunner.RunProcurement(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		_ repository.PurchaseReceiptRepository,
	) error {
		var err error
		po, err = poRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		from = po.Status
		if from == entity.POStatusSubmitted && to == entity.POStatusApproved && !actor.IsAdmin() {
			return fmt.Errorf("%w: solo un administrador puede aprobar órdenes de compra", domain.ErrForbidden)
		}
		now := time.Now()
		if err := po.Transition(to, now); err != nil {
			return err
		}
		if to == entity.POStatusApproved {
			po.ApprovedBy = actor.UserID
			po.ApprovedAt = &now
		}
		return poRepo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.POTransition(string(from), string(to))
	uc.log.Info().
		Str("po_id", po.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("user_id", actor.UserID).
		Msg("orden de compra: cambio de estado")
	uc.notifier.Notify(ctx, &entity.Notification{
		UserID:      po.CreatedBy,
		Type:        entity.NotificationPurchaseOrder,
		Title:       fmt.Sprintf("Orden %s: %s", po.OrderNumber, to),
		Message:     fmt.Sprintf("La orden %s pasó de %s a %s.", po.OrderNumber, from, to),
		ReferenceID: po.ID,
	})
	return toPurchaseOrderResponse(po), nil
}

// totalOf suma cantidad × precio de líneas recibidas.
func totalOf(items []entity.PurchaseReceiptItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.ReceivedQuantity)))
	}
	return total
}
