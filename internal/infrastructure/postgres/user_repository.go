package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, password_hash, name, role, status, provider, provider_id, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status, u.Provider, nullString(u.ProviderID),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByProvider obtiene un usuario por identidad externa.
func (r *UserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`, provider, providerID)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Update actualiza datos del usuario (nombre, rol, estado, identidad externa).
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE users SET name = $2, role = $3, status = $4, provider = $5, provider_id = $6,
			password_hash = $7, updated_at = $8
		WHERE id = $1`,
		u.ID, u.Name, u.Role, u.Status, u.Provider, nullString(u.ProviderID), u.PasswordHash, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List lista usuarios por fecha de alta.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	l, o := pageArgs(limit, offset)
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`, l, o)
}

// ListByRole lista usuarios con el rol dado.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, role)
}

func (r *UserRepo) query(ctx context.Context, query string, args ...any) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u          entity.User
		providerID *string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status, &u.Provider,
		&providerID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ProviderID = derefString(providerID)
	return &u, nil
}
