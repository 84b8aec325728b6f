package procurement

import (
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
)

func toPurchaseOrderResponse(po *entity.PurchaseOrder) *dto.PurchaseOrderResponse {
	items := make([]dto.PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, dto.PurchaseOrderItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			ExternalRef:       it.ExternalRef,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			UnitPrice:         it.UnitPrice,
			ReceivedQuantity:  it.ReceivedQuantity,
			RemainingQuantity: it.Remaining(),
		})
	}
	return &dto.PurchaseOrderResponse{
		ID:                   po.ID,
		OrderNumber:          po.OrderNumber,
		SupplierID:           po.SupplierID,
		Status:               string(po.Status),
		Items:                items,
		TotalAmount:          po.TotalAmount,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		Notes:                po.Notes,
		CreatedBy:            po.CreatedBy,
		ApprovedBy:           po.ApprovedBy,
		ApprovedAt:           po.ApprovedAt,
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
	}
}

func toReceiptResponse(r *entity.PurchaseReceipt) *dto.ReceiptResponse {
	items := make([]dto.ReceiptItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, dto.ReceiptItemResponse{
			ID:                  it.ID,
			PurchaseOrderItemID: it.PurchaseOrderItemID,
			ProductID:           it.ProductID,
			ReceivedQuantity:    it.ReceivedQuantity,
			BatchNumber:         it.BatchNumber,
			ExpiryDate:          it.ExpiryDate,
			UnitPrice:           it.UnitPrice,
		})
	}
	return &dto.ReceiptResponse{
		ID:              r.ID,
		ReceiptNumber:   r.ReceiptNumber,
		PurchaseOrderID: r.PurchaseOrderID,
		Items:           items,
		QualityCheck:    dto.QualityCheckDTO{Passed: r.QualityCheck.Passed, Notes: r.QualityCheck.Notes},
		Notes:           r.Notes,
		TotalAmount:     r.TotalAmount,
		ReceivedBy:      r.ReceivedBy,
		ReceivedAt:      r.ReceivedAt,
	}
}
