package procurement

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
	"github.com/jhoicas/Apothecary-api/internal/domain/inventory"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// ReceiptUseCase concilia recepciones de mercancía contra órdenes de compra.
type ReceiptUseCase struct {
	txRunner    TxRunner
	poRepo      repository.PurchaseOrderRepository
	receiptRepo repository.PurchaseReceiptRepository
	notifier    ports.Notifier
	metrics     ports.WorkflowMetrics
	log         *logger.Logger
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(
	txRunner TxRunner,
	poRepo repository.PurchaseOrderRepository,
	receiptRepo repository.PurchaseReceiptRepository,
	notifier ports.Notifier,
	metrics ports.WorkflowMetrics,
	log *logger.Logger,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		txRunner:    txRunner,
		poRepo:      poRepo,
		receiptRepo: receiptRepo,
		notifier:    notifier,
		metrics:     metrics,
		log:         log,
	}
}

// resolvedLine línea de recepción ya conciliada con su línea de la orden.
type resolvedLine struct {
	poItem    *entity.PurchaseOrderItem
	productID string
	item      entity.PurchaseReceiptItem
}

// Create registra una recepción. Cualquier precondición incumplida rechaza la recepción completa;
// en caso de éxito movimientos, stock, costo, cantidades recibidas, estado de la orden y la
// recepción se escriben en una sola transacción.
func (uc *ReceiptUseCase) Create(ctx context.Context, actor domain.Actor, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	now := time.Now()
	if err := validateReceipt(in, now); err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()
	receipt := &entity.PurchaseReceipt{
		ID:              receiptID,
		ReceiptNumber:   entity.NewDocumentNumber(entity.PrefixReceipt, now, receiptID),
		PurchaseOrderID: in.PurchaseOrderID,
		QualityCheck:    entity.QualityCheck{Passed: in.QualityCheck.Passed, Notes: strings.TrimSpace(in.QualityCheck.Notes)},
		Notes:           strings.TrimSpace(in.Notes),
		ReceivedBy:      actor.UserID,
		ReceivedAt:      now,
	}

	var (
		po        *entity.PurchaseOrder
		movements []*entity.StockMovement
	)
	err := uc.txRunner.RunProcurement(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		poRepo repository.PurchaseOrderRepository,
		receiptRepo repository.PurchaseReceiptRepository,
	) error {
		var err error
		po, err = poRepo.GetForUpdate(ctx, in.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if !po.Status.CanReceive() {
			return fmt.Errorf("%w: la orden %s está en estado %s; solo se reciben órdenes shipped o partially_received",
				domain.ErrConflict, po.OrderNumber, po.Status)
		}

		lines, err := resolveLines(po, receiptID, in.Items)
		if err != nil {
			return err
		}

		// Bloqueo de productos en orden estable para evitar deadlocks entre recepciones concurrentes.
		order := make([]int, len(lines))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return lines[order[a]].productID < lines[order[b]].productID })

		for _, idx := range order {
			line := lines[idx]
			p, err := productRepo.GetForUpdate(ctx, line.productID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", idx), "el producto no existe")
			}
			p.Cost = inventory.WeightedAverageCost(p.StockQuantity, p.Cost, line.item.ReceivedQuantity, line.item.UnitPrice)
			expiry := line.item.ExpiryDate
			if p.ExpiryDate == nil || expiry.Before(*p.ExpiryDate) {
				p.ExpiryDate = &expiry
			}
			mov, err := appinv.BookInTx(ctx, movRepo, productRepo, p, appinv.MovementSpec{
				Type:        entity.MovementTypeIn,
				Quantity:    line.item.ReceivedQuantity,
				Source:      entity.MovementSourceReceipt,
				ReferenceID: receiptID,
				Reason:      fmt.Sprintf("Recepción %s (lote %s)", receipt.ReceiptNumber, line.item.BatchNumber),
				UserID:      actor.UserID,
			}, now)
			if err != nil {
				return err
			}
			movements = append(movements, mov)

			line.poItem.ReceivedQuantity += line.item.ReceivedQuantity
			if err := poRepo.UpdateItemReceipt(ctx, line.poItem.ID, line.productID, line.poItem.ReceivedQuantity); err != nil {
				return err
			}
		}

		for _, line := range lines {
			receipt.Items = append(receipt.Items, line.item)
		}
		receipt.TotalAmount = totalOf(receipt.Items)

		po.RecomputeReceiptStatus(now)
		if err := poRepo.Update(ctx, po); err != nil {
			return err
		}
		return receiptRepo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.ReceiptRecorded(string(po.Status), len(receipt.Items))
	for _, m := range movements {
		uc.metrics.MovementRecorded(m.Type, m.Source, m.Quantity)
	}
	uc.log.Info().
		Str("receipt_id", receipt.ID).
		Str("po_id", po.ID).
		Str("po_status", string(po.Status)).
		Int("lines", len(receipt.Items)).
		Msg("recepción registrada")
	uc.notifier.Notify(ctx, &entity.Notification{
		UserID:      po.CreatedBy,
		Type:        entity.NotificationPurchaseOrder,
		Title:       fmt.Sprintf("Recepción %s registrada", receipt.ReceiptNumber),
		Message:     fmt.Sprintf("La orden %s quedó en estado %s.", po.OrderNumber, po.Status),
		ReferenceID: po.ID,
	})

	out := toReceiptResponse(receipt)
	out.PurchaseOrderStatus = string(po.Status)
	return out, nil
}

// validateReceipt verifica las reglas que no dependen de la orden: lote, vencimiento,
// cantidades, precio e inspección de calidad.
func validateReceipt(in dto.CreateReceiptRequest, now time.Time) error {
	verr := &domain.ValidationError{}
	if in.PurchaseOrderID == "" {
		verr.Add("purchase_order_id", "es obligatorio")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "debe incluir al menos una línea")
	}
	if !in.QualityCheck.Passed {
		verr.Add("quality_check.passed", "la mercancía no aprobó el control de calidad; no se ingresa al stock")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.PurchaseOrderItemID == "" && it.ProductID == "" {
			verr.Add(field+".purchase_order_item_id", "indique purchase_order_item_id o product_id")
		}
		if it.ReceivedQuantity <= 0 {
			verr.Add(field+".received_quantity", "debe ser mayor que cero")
		}
		if strings.TrimSpace(it.BatchNumber) == "" {
			verr.Add(field+".batch_number", "es obligatorio para la trazabilidad")
		}
		if it.ExpiryDate == nil || it.ExpiryDate.IsZero() {
			verr.Add(field+".expiry_date", "es obligatoria para la trazabilidad")
		} else if !it.ExpiryDate.After(now) {
			verr.Add(field+".expiry_date", "no se puede recibir mercancía vencida")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			verr.Add(field+".unit_price", "no puede ser negativo")
		}
	}
	return verr.OrNil()
}

// resolveLines concilia cada línea recibida con exactamente una línea de la orden y verifica
// que lo recibido no supere el saldo pendiente de cada línea. Las líneas con solo referencia
// externa quedan vinculadas al producto de su primera recepción.
func resolveLines(po *entity.PurchaseOrder, receiptID string, items []dto.ReceiptItemRequest) ([]resolvedLine, error) {
	verr := &domain.ValidationError{}
	lines := make([]resolvedLine, 0, len(items))
	received := make(map[string]int64)

	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		var poItem *entity.PurchaseOrderItem
		if it.PurchaseOrderItemID != "" {
			found, ok := po.Item(it.PurchaseOrderItemID)
			if !ok {
				verr.Add(field+".purchase_order_item_id", "no pertenece a la orden")
				continue
			}
			poItem = found
		} else {
			candidates := po.ItemsByProduct(it.ProductID)
			switch len(candidates) {
			case 0:
				verr.Add(field+".product_id", "el producto no tiene saldo pendiente en la orden")
				continue
			case 1:
				poItem = candidates[0]
			default:
				verr.Add(field+".product_id", "varias líneas de la orden coinciden; indique purchase_order_item_id")
				continue
			}
		}

		productID := poItem.ProductID
		switch {
		case productID == "" && it.ProductID == "":
			verr.Add(field+".product_id", "la línea de la orden solo tiene referencia externa; indique el producto a ingresar")
			continue
		case productID == "":
			// La primera recepción vincula la línea; las siguientes deben usar el mismo producto.
			productID = it.ProductID
			poItem.ProductID = productID
		case it.ProductID != "" && it.ProductID != productID:
			verr.Add(field+".product_id", "no coincide con el producto de la línea de la orden")
			continue
		}

		received[poItem.ID] += it.ReceivedQuantity
		if received[poItem.ID] > poItem.Remaining() {
			verr.Add(field+".received_quantity", fmt.Sprintf("excede el saldo pendiente de la línea (%d)", poItem.Remaining()))
			continue
		}

		price := poItem.UnitPrice
		if it.UnitPrice != nil {
			price = it.UnitPrice.Round(2)
		}
		lines = append(lines, resolvedLine{
			poItem:    poItem,
			productID: productID,
			item: entity.PurchaseReceiptItem{
				ID:                  uuid.New().String(),
				ReceiptID:           receiptID,
				PurchaseOrderItemID: poItem.ID,
				ProductID:           productID,
				ReceivedQuantity:    it.ReceivedQuantity,
				BatchNumber:         strings.TrimSpace(it.BatchNumber),
				ExpiryDate:          *it.ExpiryDate,
				UnitPrice:           price,
			},
		})
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetByID obtiene una recepción con sus líneas.
func (uc *ReceiptUseCase) GetByID(ctx context.Context, id string) (*dto.ReceiptResponse, error) {
	r, err := uc.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return toReceiptResponse(r), nil
}

// List lista recepciones (más recientes primero).
func (uc *ReceiptUseCase) List(ctx context.Context, limit, offset int) (*dto.ReceiptListResponse, error) {
	list, err := uc.receiptRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return toReceiptList(list, limit, offset), nil
}

// ListByPurchaseOrder lista las recepciones de una orden.
func (uc *ReceiptUseCase) ListByPurchaseOrder(ctx context.Context, poID string) (*dto.ReceiptListResponse, error) {
	po, err := uc.poRepo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.receiptRepo.ListByPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	return toReceiptList(list, len(list), 0), nil
}

func toReceiptList(list []*entity.PurchaseReceipt, limit, offset int) *dto.ReceiptListResponse {
	items := make([]dto.ReceiptResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *toReceiptResponse(r))
	}
	return &dto.ReceiptListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Count: len(items)},
	}
}
