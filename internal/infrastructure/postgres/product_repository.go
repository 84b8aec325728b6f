package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, category, manufacturer, stock_quantity, reorder_level,
	unit_price, cost, expiry_date, supplier_id, janaushadhi_code, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.Manufacturer, p.StockQuantity, p.ReorderLevel,
		p.UnitPrice, p.Cost, p.ExpiryDate, nullString(p.SupplierID), nullString(p.JanAushadhiCode),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un producto con SKU %s", domain.ErrDuplicate, p.SKU)
		}
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("supplier_id", "el proveedor no existe")
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update actualiza datos descriptivos. Stock y costo se manejan vía movimientos.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, description = $4, category = $5, manufacturer = $6,
			reorder_level = $7, unit_price = $8, expiry_date = $9, supplier_id = $10, janaushadhi_code = $11,
			updated_at = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.Manufacturer, p.ReorderLevel, p.UnitPrice,
		p.ExpiryDate, nullString(p.SupplierID), nullString(p.JanAushadhiCode), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un producto con SKU %s", domain.ErrDuplicate, p.SKU)
		}
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("supplier_id", "el proveedor no existe")
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateInventory persiste stock, costo y vencimiento.
func (r *ProductRepo) UpdateInventory(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock_quantity = $2, cost = $3, expiry_date = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.StockQuantity, p.Cost, p.ExpiryDate, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product inventory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos con filtros y paginación, ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.SupplierID != "" {
		args = append(args, f.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.query(ctx, query, args...)
}

// ListLowStock productos con stock en o por debajo del nivel de reorden.
func (r *ProductRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products
		WHERE stock_quantity <= reorder_level ORDER BY stock_quantity, name`)
}

// ListExpiringBefore productos con vencimiento anterior a before.
func (r *ProductRepo) ListExpiringBefore(ctx context.Context, before time.Time) ([]*entity.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products
		WHERE expiry_date IS NOT NULL AND expiry_date < $1 ORDER BY expiry_date, name`, before)
}

func (r *ProductRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete elimina un producto. Con movimientos u órdenes asociadas devuelve ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: el producto tiene movimientos u órdenes asociadas", domain.ErrConflict)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p          entity.Product
		supplierID *string
		jaCode     *string
	)
	if err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Manufacturer, &p.StockQuantity,
		&p.ReorderLevel, &p.UnitPrice, &p.Cost, &p.ExpiryDate, &supplierID, &jaCode,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.SupplierID = derefString(supplierID)
	p.JanAushadhiCode = derefString(jaCode)
	return &p, nil
}
