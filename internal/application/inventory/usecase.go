package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/inventory"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// MovementSpec describe un movimiento a registrar dentro de una transacción.
type MovementSpec struct {
	Type        string
	Quantity    int64
	Source      string
	ReferenceID string
	Reason      string
	UserID      string
}

// BookInTx aplica el movimiento sobre el producto (ya bloqueado con GetForUpdate por el llamador),
// inserta la entrada del libro y persiste stock, costo y vencimiento del producto.
// Se usa desde recepciones, distribuciones y ajustes con los repos de la misma transacción.
func BookInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	spec MovementSpec,
	now time.Time,
) (*entity.StockMovement, error) {
	mov, err := inventory.NewMovement(product, spec.Type, spec.Quantity)
	if err != nil {
		return nil, err
	}
	mov.ID = uuid.New().String()
	mov.Source = spec.Source
	mov.ReferenceID = spec.ReferenceID
	mov.Reason = spec.Reason
	mov.CreatedBy = spec.UserID
	mov.CreatedAt = now

	product.UpdatedAt = now
	if err := productRepo.UpdateInventory(ctx, product); err != nil {
		return nil, err
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// LowStockNotification arma el aviso de stock bajo para un producto (difusión al personal).
func LowStockNotification(p *entity.Product) *entity.Notification {
	return &entity.Notification{
		Type:        entity.NotificationLowStock,
		Title:       "Stock bajo: " + p.Name,
		Message:     fmt.Sprintf("%s (%s) tiene %d unidades; nivel de reorden %d.", p.Name, p.SKU, p.StockQuantity, p.ReorderLevel),
		ReferenceID: p.ID,
	}
}

// MovementUseCase ajustes manuales, consulta y conciliación del libro de movimientos.
type MovementUseCase struct {
	txRunner    TxRunner
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
	notifier    ports.Notifier
	metrics     ports.WorkflowMetrics
	log         *logger.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	notifier ports.Notifier,
	metrics ports.WorkflowMetrics,
	log *logger.Logger,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:    txRunner,
		movRepo:     movRepo,
		productRepo: productRepo,
		notifier:    notifier,
		metrics:     metrics,
		log:         log,
	}
}

// Adjust registra un ajuste manual: bloquea la fila del producto, inserta el movimiento y
// actualiza el stock en una sola transacción.
func (uc *MovementUseCase) Adjust(ctx context.Context, actor domain.Actor, in dto.CreateMovementRequest) (*dto.MovementResponse, error) {
	verr := &domain.ValidationError{}
	if in.ProductID == "" {
		verr.Add("product_id", "es obligatorio")
	}
	if in.Type != entity.MovementTypeIn && in.Type != entity.MovementTypeOut {
		verr.Add("type", "debe ser in u out")
	}
	if in.Quantity <= 0 {
		verr.Add("quantity", "debe ser mayor que cero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		verr.Add("reason", "es obligatorio en ajustes manuales")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	var (
		mov      *entity.StockMovement
		snapshot entity.Product
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		mov, err = BookInTx(ctx, movRepo, productRepo, p, MovementSpec{
			Type:     in.Type,
			Quantity: in.Quantity,
			Source:   entity.MovementSourceAdjustment,
			Reason:   strings.TrimSpace(in.Reason),
			UserID:   actor.UserID,
		}, now)
		if err != nil {
			return err
		}
		snapshot = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.MovementRecorded(mov.Type, mov.Source, mov.Quantity)
	if mov.Type == entity.MovementTypeOut && snapshot.IsLowStock() {
		uc.notifier.Notify(ctx, LowStockNotification(&snapshot))
	}
	out := ToMovementResponse(mov)
	return &out, nil
}

// GetByID obtiene un movimiento.
func (uc *MovementUseCase) GetByID(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	out := ToMovementResponse(m)
	return &out, nil
}

// List lista movimientos con filtros y paginación.
func (uc *MovementUseCase) List(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	list, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)},
	}, nil
}

// Reconcile reconstruye el stock del producto desde su libro y lo compara con el stock actual.
// Todo producto nace con stock 0: el stock inicial se registra como movimiento.
func (uc *MovementUseCase) Reconcile(ctx context.Context, productID string) (*dto.ReconcileResponse, error) {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	res, err := inventory.Replay(0, movs)
	if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
		return nil, err
	}
	if err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("libro de movimientos inconsistente")
	}
	return &dto.ReconcileResponse{
		ProductID:     productID,
		InitialStock:  0,
		MovementCount: res.Movements,
		ReplayedStock: res.FinalStock,
		CurrentStock:  p.StockQuantity,
		Consistent:    err == nil && res.Consistent(p.StockQuantity),
		BrokenChain:   res.BrokenChain,
	}, nil
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		Source:        m.Source,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}
