package auth

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/jwt"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro, login local y login OAuth.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	enqueuer ports.TaskEnqueuer
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, enqueuer ports.TaskEnqueuer, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, enqueuer: enqueuer, log: log}
}

// RegisterUser crea un usuario local: hashea password con bcrypt y persiste.
// El primer usuario del sistema queda como admin; los siguientes como staff.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(in.Email)
	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "es obligatorio")
	}
	if len(in.Password) < 8 {
		verr.Add("password", "debe tener al menos 8 caracteres")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role, err := uc.roleForNewUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserStatusActive,
		Provider:     entity.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.sendWelcome(ctx, user)
	return usecase.EntityToUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.PasswordHash == "" {
		// Cuenta creada vía OAuth: no tiene password local.
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	return uc.issue(user)
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, actor domain.Actor) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return usecase.EntityToUserResponse(user), nil
}

// LoginWithOAuth busca el usuario por proveedor; si no existe lo vincula por email o lo crea.
// Solo se vincula una cuenta existente cuando el proveedor confirmó el email.
func (uc *AuthUseCase) LoginWithOAuth(ctx context.Context, profile dto.OAuthProfile) (*dto.LoginResponse, error) {
	if profile.ProviderID == "" {
		return nil, fmt.Errorf("%w: perfil OAuth sin identificador", domain.ErrUnauthorized)
	}
	user, err := uc.userRepo.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(profile.Email)
	if user == nil && email != "" {
		user, err = uc.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if !profile.EmailVerified {
				return nil, fmt.Errorf("%w: el email %s ya tiene cuenta y %s no lo verificó", domain.ErrConflict, email, profile.Provider)
			}
			user.Provider = profile.Provider
			user.ProviderID = profile.ProviderID
			user.UpdatedAt = time.Now()
			if err := uc.userRepo.Update(ctx, user); err != nil {
				return nil, err
			}
		}
	}
	if user == nil {
		if email == "" {
			return nil, domain.NewValidationError("email", "el proveedor no compartió el email")
		}
		role, err := uc.roleForNewUser(ctx)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = email
		}
		now := time.Now()
		user = &entity.User{
			ID:         uuid.New().String(),
			Email:      email,
			Name:       name,
			Role:       role,
			Status:     entity.UserStatusActive,
			Provider:   profile.Provider,
			ProviderID: profile.ProviderID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		uc.sendWelcome(ctx, user)
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *usecase.EntityToUserResponse(user),
	}, nil
}

func (uc *AuthUseCase) roleForNewUser(ctx context.Context) (string, error) {
	users, err := uc.userRepo.List(ctx, 1, 0)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return entity.RoleAdmin, nil
	}
	return entity.RoleStaff, nil
}

// sendWelcome encola el correo de bienvenida; un fallo solo se registra.
func (uc *AuthUseCase) sendWelcome(ctx context.Context, user *entity.User) {
	err := uc.enqueuer.EnqueueEmail(ctx, ports.EmailMessage{
		To:      []string{user.Email},
		Subject: "Bienvenido a Apothecary",
		Body:    fmt.Sprintf("<p>Hola %s,</p><p>tu cuenta fue creada con el rol <b>%s</b>.</p>", html.EscapeString(user.Name), user.Role),
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("no se pudo encolar el correo de bienvenida")
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
