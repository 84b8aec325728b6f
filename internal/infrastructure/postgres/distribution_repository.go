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

var _ repository.DistributionRepository = (*DistributionRepo)(nil)

const distributionColumns = `id, order_number, recipient, recipient_type, status, notes, total_amount,
	created_by, created_at, updated_at`

// DistributionRepo órdenes de distribución sobre PostgreSQL.
type DistributionRepo struct {
	q Querier
}

// NewDistributionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDistributionRepository(q Querier) *DistributionRepo {
	return &DistributionRepo{q: q}
}

// Create inserta la orden y sus líneas.
func (r *DistributionRepo) Create(ctx context.Context, d *entity.DistributionOrder) error {
	_, err := r.q.Exec(ctx, `INSERT INTO distributions (`+distributionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.OrderNumber, d.Recipient, d.RecipientType, string(d.Status), d.Notes, d.TotalAmount,
		nullString(d.CreatedBy), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}
	for i, it := range d.Items {
		_, err := r.q.Exec(ctx, `INSERT INTO distribution_items
			(id, distribution_id, product_id, product_name, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, d.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, i,
		)
		if err != nil {
			return fmt.Errorf("insert distribution item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *DistributionRepo) GetByID(ctx context.Context, id string) (*entity.DistributionOrder, error) {
	return r.getOne(ctx, `SELECT `+distributionColumns+` FROM distributions WHERE id = $1`, id)
}

// GetForUpdate obtiene la orden bloqueando la fila.
func (r *DistributionRepo) GetForUpdate(ctx context.Context, id string) (*entity.DistributionOrder, error) {
	return r.getOne(ctx, `SELECT `+distributionColumns+` FROM distributions WHERE id = $1 FOR UPDATE`, id)
}

func (r *DistributionRepo) getOne(ctx context.Context, query, id string) (*entity.DistributionOrder, error) {
	d, err := scanDistribution(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get distribution: %w", err)
	}
	items, err := r.loadItems(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}
	d.Items = items[d.ID]
	return d, nil
}

func (r *DistributionRepo) loadItems(ctx context.Context, ids []string) (map[string][]entity.DistributionItem, error) {
	out := make(map[string][]entity.DistributionItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id, distribution_id, product_id, product_name, quantity, unit_price
		FROM distribution_items WHERE distribution_id = ANY($1::uuid[]) ORDER BY distribution_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list distribution items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.DistributionItem
		if err := rows.Scan(&it.ID, &it.DistributionID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan distribution item: %w", err)
		}
		out[it.DistributionID] = append(out[it.DistributionID], it)
	}
	return out, rows.Err()
}

// List distribuciones más recientes primero.
func (r *DistributionRepo) List(ctx context.Context, f repository.DistributionFilter) ([]*entity.DistributionOrder, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.RecipientType != "" {
		args = append(args, f.RecipientType)
		where = append(where, fmt.Sprintf("recipient_type = $%d", len(args)))
	}
	query := `SELECT ` + distributionColumns + ` FROM distributions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	var (
		list []*entity.DistributionOrder
		ids  []string
	)
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		list = append(list, d)
		ids = append(ids, d.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range list {
		d.Items = items[d.ID]
	}
	return list, nil
}

// UpdateStatus persiste estado y fecha de actualización.
func (r *DistributionRepo) UpdateStatus(ctx context.Context, d *entity.DistributionOrder) error {
	cmd, err := r.q.Exec(ctx, `UPDATE distributions SET status = $2, updated_at = $3 WHERE id = $1`,
		d.ID, string(d.Status), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update distribution: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDistribution(row pgx.Row) (*entity.DistributionOrder, error) {
	var (
		d         entity.DistributionOrder
		status    string
		createdBy *string
	)
	if err := row.Scan(&d.ID, &d.OrderNumber, &d.Recipient, &d.RecipientType, &status, &d.Notes,
		&d.TotalAmount, &createdBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Status = entity.DistributionStatus(status)
	d.CreatedBy = derefString(createdBy)
	return &d, nil
}
