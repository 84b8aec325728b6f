package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const poColumns = `id, order_number, supplier_id, status, total_amount, expected_delivery_date, notes,
	created_by, approved_by, approved_at, created_at, updated_at`

const poItemColumns = `id, purchase_order_id, product_id, external_ref, product_name, quantity, unit_price, received_quantity`

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la cabecera y las líneas. Debe llamarse dentro de una tx para ser atómico.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `INSERT INTO purchase_orders (`+poColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		po.ID, po.OrderNumber, po.SupplierID, string(po.Status), po.TotalAmount, po.ExpectedDeliveryDate,
		po.Notes, nullString(po.CreatedBy), nullString(po.ApprovedBy), po.ApprovedAt, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("supplier_id", "el proveedor no existe")
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return r.insertItems(ctx, po.ID, po.Items)
}

func (r *PurchaseOrderRepo) insertItems(ctx context.Context, poID string, items []entity.PurchaseOrderItem) error {
	for i, it := range items {
		_, err := r.q.Exec(ctx, `INSERT INTO purchase_order_items (`+poItemColumns+`, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, poID, nullString(it.ProductID), it.ExternalRef, it.ProductName, it.Quantity, it.UnitPrice,
			it.ReceivedQuantity, i,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "el producto no existe")
			}
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate obtiene la orden bloqueando la cabecera (las líneas solo cambian con la cabecera bloqueada).
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) getOne(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	items, err := r.loadItems(ctx, []string{po.ID})
	if err != nil {
		return nil, err
	}
	po.Items = items[po.ID]
	return po, nil
}

// loadItems carga las líneas de varias órdenes en una sola consulta.
func (r *PurchaseOrderRepo) loadItems(ctx context.Context, poIDs []string) (map[string][]entity.PurchaseOrderItem, error) {
	out := make(map[string][]entity.PurchaseOrderItem, len(poIDs))
	if len(poIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+poItemColumns+` FROM purchase_order_items
		WHERE purchase_order_id = ANY($1::uuid[]) ORDER BY purchase_order_id, position`, poIDs)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it        entity.PurchaseOrderItem
			productID *string
		)
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &productID, &it.ExternalRef, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		it.ProductID = derefString(productID)
		out[it.PurchaseOrderID] = append(out[it.PurchaseOrderID], it)
	}
	return out, rows.Err()
}

// List lista órdenes (más recientes primero) con sus líneas.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.SupplierID != "" {
		args = append(args, f.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	query := `SELECT ` + poColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	var (
		list []*entity.PurchaseOrder
		ids  []string
	)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
		ids = append(ids, po.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, po := range list {
		po.Items = items[po.ID]
	}
	return list, nil
}

// Update persiste la cabecera.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, total_amount = $3, expected_delivery_date = $4, notes = $5,
			approved_by = $6, approved_at = $7, updated_at = $8
		WHERE id = $1`,
		po.ID, string(po.Status), po.TotalAmount, po.ExpectedDeliveryDate, po.Notes,
		nullString(po.ApprovedBy), po.ApprovedAt, po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceItems borra y vuelve a insertar las líneas.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, poID string, items []entity.PurchaseOrderItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, poID); err != nil {
		return fmt.Errorf("delete purchase order items: %w", err)
	}
	return r.insertItems(ctx, poID, items)
}

// UpdateItemReceipt fija la cantidad recibida y el producto de la línea.
func (r *PurchaseOrderRepo) UpdateItemReceipt(ctx context.Context, itemID, productID string, receivedQuantity int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE purchase_order_items SET product_id = $2, received_quantity = $3
		 WHERE id = $1 AND (product_id IS NULL OR product_id = $2)`, itemID, productID, receivedQuantity)
	if err != nil {
		return fmt.Errorf("update purchase order item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: la línea %s no existe o está vinculada a otro producto", domain.ErrConflict, itemID)
	}
	return nil
}

// Delete elimina la orden (las líneas caen en cascada).
func (r *PurchaseOrderRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: la orden tiene recepciones", domain.ErrConflict)
		}
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var (
		po         entity.PurchaseOrder
		status     string
		createdBy  *string
		approvedBy *string
	)
	if err := row.Scan(&po.ID, &po.OrderNumber, &po.SupplierID, &status, &po.TotalAmount,
		&po.ExpectedDeliveryDate, &po.Notes, &createdBy, &approvedBy, &po.ApprovedAt,
		&po.CreatedAt, &po.UpdatedAt); err != nil {
		return nil, err
	}
	po.Status = entity.POStatus(status)
	po.CreatedBy = derefString(createdBy)
	po.ApprovedBy = derefString(approvedBy)
	return &po, nil
}

var _ repository.PurchaseReceiptRepository = (*PurchaseReceiptRepo)(nil)

const receiptColumns = `id, receipt_number, purchase_order_id, quality_passed, quality_notes, notes, total_amount,
	received_by, received_at`

const receiptItemColumns = `id, receipt_id, purchase_order_item_id, product_id, received_quantity, batch_number,
	expiry_date, unit_price`

// PurchaseReceiptRepo recepciones de mercancía (solo inserción y lectura).
type PurchaseReceiptRepo struct {
	q Querier
}

// NewPurchaseReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseReceiptRepository(q Querier) *PurchaseReceiptRepo {
	return &PurchaseReceiptRepo{q: q}
}

// Create inserta la recepción con sus líneas.
func (r *PurchaseReceiptRepo) Create(ctx context.Context, rc *entity.PurchaseReceipt) error {
	_, err := r.q.Exec(ctx, `INSERT INTO purchase_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rc.ID, rc.ReceiptNumber, rc.PurchaseOrderID, rc.QualityCheck.Passed, rc.QualityCheck.Notes, rc.Notes,
		rc.TotalAmount, nullString(rc.ReceivedBy), rc.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase receipt: %w", err)
	}
	for i, it := range rc.Items {
		_, err := r.q.Exec(ctx, `INSERT INTO purchase_receipt_items (`+receiptItemColumns+`, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, rc.ID, it.PurchaseOrderItemID, it.ProductID, it.ReceivedQuantity, it.BatchNumber,
			it.ExpiryDate, it.UnitPrice, i,
		)
		if err != nil {
			return fmt.Errorf("insert purchase receipt item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una recepción con sus líneas.
func (r *PurchaseReceiptRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseReceipt, error) {
	list, err := r.query(ctx, `SELECT `+receiptColumns+` FROM purchase_receipts WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListByPurchaseOrder recepciones de una orden, en orden cronológico.
func (r *PurchaseReceiptRepo) ListByPurchaseOrder(ctx context.Context, poID string) ([]*entity.PurchaseReceipt, error) {
	return r.query(ctx, `SELECT `+receiptColumns+` FROM purchase_receipts
		WHERE purchase_order_id = $1 ORDER BY received_at, id`, poID)
}

// List recepciones más recientes primero.
func (r *PurchaseReceiptRepo) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseReceipt, error) {
	l, o := pageArgs(limit, offset)
	return r.query(ctx, `SELECT `+receiptColumns+` FROM purchase_receipts
		ORDER BY received_at DESC, id LIMIT $1 OFFSET $2`, l, o)
}

func (r *PurchaseReceiptRepo) query(ctx context.Context, query string, args ...any) ([]*entity.PurchaseReceipt, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase receipts: %w", err)
	}
	var (
		list []*entity.PurchaseReceipt
		ids  []string
	)
	for rows.Next() {
		var (
			rc         entity.PurchaseReceipt
			receivedBy *string
		)
		if err := rows.Scan(&rc.ID, &rc.ReceiptNumber, &rc.PurchaseOrderID, &rc.QualityCheck.Passed,
			&rc.QualityCheck.Notes, &rc.Notes, &rc.TotalAmount, &receivedBy, &rc.ReceivedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase receipt: %w", err)
		}
		rc.ReceivedBy = derefString(receivedBy)
		list = append(list, &rc)
		ids = append(ids, rc.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	itemRows, err := r.q.Query(ctx, `SELECT `+receiptItemColumns+` FROM purchase_receipt_items
		WHERE receipt_id = ANY($1::uuid[]) ORDER BY receipt_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list purchase receipt items: %w", err)
	}
	defer itemRows.Close()
	byReceipt := make(map[string][]entity.PurchaseReceiptItem, len(ids))
	for itemRows.Next() {
		var it entity.PurchaseReceiptItem
		if err := itemRows.Scan(&it.ID, &it.ReceiptID, &it.PurchaseOrderItemID, &it.ProductID,
			&it.ReceivedQuantity, &it.BatchNumber, &it.ExpiryDate, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan purchase receipt item: %w", err)
		}
		byReceipt[it.ReceiptID] = append(byReceipt[it.ReceiptID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for _, rc := range list {
		rc.Items = byReceipt[rc.ID]
	}
	return list, nil
}
