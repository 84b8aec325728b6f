package distribution

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	appinv "github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// UseCase despacho de stock a farmacias, hospitales, clínicas y pacientes.
// La salida de stock ocurre al crear la orden; devoluciones y cancelaciones la revierten.
type UseCase struct {
	txRunner TxRunner
	distRepo repository.DistributionRepository
	notifier ports.Notifier
	metrics  ports.WorkflowMetrics
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	distRepo repository.DistributionRepository,
	notifier ports.Notifier,
	metrics ports.WorkflowMetrics,
	log *logger.Logger,
) *UseCase {
	return &UseCase{txRunner: txRunner, distRepo: distRepo, notifier: notifier, metrics: metrics, log: log}
}

// Create valida la orden y, en una sola transacción, bloquea cada producto, registra la salida y
// persiste la orden como pending. Si algún producto no alcanza, no se escribe nada.
func (uc *UseCase) Create(ctx context.Context, actor domain.Actor, in dto.CreateDistributionRequest) (*dto.DistributionResponse, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Recipient) == "" {
		verr.Add("recipient", "es obligatorio")
	}
	if !entity.IsValidRecipientType(in.RecipientType) {
		verr.Add("recipient_type", "debe ser pharmacy, hospital, clinic o patient")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "debe incluir al menos una línea")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == "" {
			verr.Add(field+".product_id", "es obligatorio")
		}
		if it.Quantity <= 0 {
			verr.Add(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			verr.Add(field+".unit_price", "no puede ser negativo")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	orderID := uuid.New().String()
	order := &entity.DistributionOrder{
		ID:            orderID,
		OrderNumber:   entity.NewDocumentNumber(entity.PrefixDistribution, now, orderID),
		Recipient:     strings.TrimSpace(in.Recipient),
		RecipientType: in.RecipientType,
		Status:        entity.DistributionPending,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Items = make([]entity.DistributionItem, len(in.Items))

	var (
		movements []*entity.StockMovement
		touched   = make(map[string]entity.Product)
	)
	err := uc.txRunner.RunDistribution(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		distRepo repository.DistributionRepository,
	) error {
		for _, idx := range lockOrder(in.Items) {
			it := in.Items[idx]
			p, err := productRepo.GetForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", idx), "el producto no existe")
			}
			price := p.UnitPrice
			if it.UnitPrice != nil {
				price = it.UnitPrice.Round(2)
			}
			mov, err := appinv.BookInTx(ctx, movRepo, productRepo, p, appinv.MovementSpec{
				Type:        entity.MovementTypeOut,
				Quantity:    it.Quantity,
				Source:      entity.MovementSourceDistribution,
				ReferenceID: orderID,
				Reason:      fmt.Sprintf("Distribución %s a %s", order.OrderNumber, order.Recipient),
				UserID:      actor.UserID,
			}, now)
			if err != nil {
				return fmt.Errorf("producto %s: %w", p.SKU, err)
			}
			movements = append(movements, mov)
			touched[p.ID] = *p
			order.Items[idx] = entity.DistributionItem{
				ID:             uuid.New().String(),
				DistributionID: orderID,
				ProductID:      p.ID,
				ProductName:    p.Name,
				Quantity:       it.Quantity,
				UnitPrice:      price,
			}
		}
		order.ComputeTotal()
		return distRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	for _, m := range movements {
		uc.metrics.MovementRecorded(m.Type, m.Source, m.Quantity)
	}
	for _, p := range touched {
		if p.IsLowStock() {
			uc.notifier.Notify(ctx, appinv.LowStockNotification(&p))
		}
	}
	uc.log.Info().Str("distribution_id", order.ID).Int("lines", len(order.Items)).Msg("distribución creada")
	return toResponse(order), nil
}

// lockOrder índices de las líneas ordenados por producto (orden estable de bloqueo).
func lockOrder(items []dto.DistributionItemRequest) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return items[idx[a]].ProductID < items[idx[b]].ProductID })
	return idx
}

// Transition cambia el estado. Al pasar a returned o cancelled reingresa el stock despachado
// en la misma transacción.
func (uc *UseCase) Transition(ctx context.Context, actor domain.Actor, id, target string) (*dto.DistributionResponse, error) {
	to, ok := entity.ParseDistributionStatus(target)
	if !ok {
		return nil, domain.NewValidationError("status", "estado desconocido: "+target)
	}

	var (
		order     *entity.DistributionOrder
		from      entity.DistributionStatus
		movements []*entity.StockMovement
	)
	err := uc.txRunner.RunDistribution(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		distRepo repository.DistributionRepository,
	) error {
		var err error
		order, err = distRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		from = order.Status
		now := time.Now()
		if err := order.Transition(to, now); err != nil {
			return err
		}
		if to.RestoresStock() {
			items := append([]entity.DistributionItem(nil), order.Items...)
			sort.SliceStable(items, func(a, b int) bool { return items[a].ProductID < items[b].ProductID })
			for _, it := range items {
				p, err := productRepo.GetForUpdate(ctx, it.ProductID)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("%w: producto %s de la distribución", domain.ErrNotFound, it.ProductID)
				}
				mov, err := appinv.BookInTx(ctx, movRepo, productRepo, p, appinv.MovementSpec{
					Type:        entity.MovementTypeIn,
					Quantity:    it.Quantity,
					Source:      entity.MovementSourceDistribution,
					ReferenceID: order.ID,
					Reason:      fmt.Sprintf("Reverso distribución %s (%s)", order.OrderNumber, to),
					UserID:      actor.UserID,
				}, now)
				if err != nil {
					return err
				}
				movements = append(movements, mov)
			}
		}
		return distRepo.UpdateStatus(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.DistributionTransition(string(from), string(to))
	for _, m := range movements {
		uc.metrics.MovementRecorded(m.Type, m.Source, m.Quantity)
	}
	uc.notifier.Notify(ctx, &entity.Notification{
		UserID:      order.CreatedBy,
		Type:        entity.NotificationDistribution,
		Title:       fmt.Sprintf("Distribución %s: %s", order.OrderNumber, to),
		Message:     fmt.Sprintf("La distribución a %s pasó de %s a %s.", order.Recipient, from, to),
		ReferenceID: order.ID,
	})
	return toResponse(order), nil
}

// GetByID obtiene una distribución.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.DistributionResponse, error) {
	d, err := uc.distRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(d), nil
}

// List lista distribuciones filtrando por estado.
func (uc *UseCase) List(ctx context.Context, filter repository.DistributionFilter) (*dto.DistributionListResponse, error) {
	if filter.Status != "" {
		if _, ok := entity.ParseDistributionStatus(filter.Status); !ok {
			return nil, domain.NewValidationError("status", "estado desconocido")
		}
	}
	list, err := uc.distRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DistributionResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *toResponse(d))
	}
	return &dto.DistributionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)},
	}, nil
}

func toResponse(d *entity.DistributionOrder) *dto.DistributionResponse {
	items := make([]dto.DistributionItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.DistributionItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return &dto.DistributionResponse{
		ID:            d.ID,
		OrderNumber:   d.OrderNumber,
		Recipient:     d.Recipient,
		RecipientType: d.RecipientType,
		Items:         items,
		Status:        string(d.Status),
		Notes:         d.Notes,
		TotalAmount:   d.TotalAmount,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
