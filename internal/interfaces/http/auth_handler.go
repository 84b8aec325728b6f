package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Apothecary-api/internal/application/auth"
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

const oauthStateCookie = "oauth_state"

// OAuthProvider lo que el handler necesita de un proveedor OAuth.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*dto.OAuthProfile, error)
}

// AuthHandler maneja registro, login, perfil y login con proveedores OAuth.
type AuthHandler struct {
	uc          *auth.AuthUseCase
	providers   map[string]OAuthProvider
	newState    func() (string, error)
	frontendURL string
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, providers map[string]OAuthProvider, newState func() (string, error), frontendURL string) *AuthHandler {
	if newState == nil {
		newState = func() (string, error) { return uuid.NewString(), nil }
	}
	return &AuthHandler{
		uc:          uc,
		providers:   providers,
		newState:    newState,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Register godoc
// @Summary      Registrar usuario
// @Description  El primer usuario registrado queda como admin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, name"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	user, err := h.uc.RegisterUser(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cuenta inactiva"})
		}
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// OAuthBegin godoc
// @Summary      Iniciar login OAuth
// @Description  Redirige al consentimiento de Google o Facebook.
// @Tags         auth
// @Param        provider  path  string  true  "google | facebook"
// @Success      307
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/auth/{provider} [get]
func (h *AuthHandler) OAuthBegin(c *fiber.Ctx) error {
	p, ok := h.providers[c.Params("provider")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "proveedor OAuth no configurado"})
	}
	state, err := h.newState()
	if err != nil {
		return writeError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(p.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// OAuthCallback godoc
// @Summary      Callback OAuth
// @Description  Canjea el código y redirige a FRONTEND_URL/oauth/callback con token y usuario.
// @Tags         auth
// @Param        provider  path   string  true  "google | facebook"
// @Param        code      query  string  true  "código de autorización"
// @Param        state     query  string  true  "state emitido al iniciar"
// @Success      307
// @Router       /api/auth/{provider}/callback [get]
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	p, ok := h.providers[c.Params("provider")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "proveedor OAuth no configurado"})
	}
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return h.redirectFrontend(c, url.Values{"error": {"invalid_state"}})
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if e := c.Query("error"); e != "" {
		return h.redirectFrontend(c, url.Values{"error": {e}})
	}

	profile, err := p.Exchange(c.UserContext(), c.Query("code"))
	if err != nil {
		loggerFrom(c).Warn().Err(err).Str("provider", c.Params("provider")).Msg("oauth: canje fallido")
		return h.redirectFrontend(c, url.Values{"error": {"exchange_failed"}})
	}
	out, err := h.uc.LoginWithOAuth(c.UserContext(), *profile)
	if err != nil {
		loggerFrom(c).Warn().Err(err).Str("provider", profile.Provider).Msg("oauth: login rechazado")
		return h.redirectFrontend(c, url.Values{"error": {"login_failed"}})
	}
	user, err := json.Marshal(out.User)
	if err != nil {
		return writeError(c, err)
	}
	return h.redirectFrontend(c, url.Values{"token": {out.Token}, "user": {string(user)}})
}

func (h *AuthHandler) redirectFrontend(c *fiber.Ctx, q url.Values) error {
	return c.Redirect(h.frontendURL+"/oauth/callback?"+q.Encode(), fiber.StatusTemporaryRedirect)
}
