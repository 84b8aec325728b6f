// Package oauth implementa el login con Google y Facebook sobre golang.org/x/oauth2.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/pkg/config"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"
)

// Provider un proveedor OAuth configurado.
type Provider struct {
	name       string
	conf       *oauth2.Config
	profileURL string
}

// NewProvider construye un proveedor con endpoints explícitos.
func NewProvider(name string, conf *oauth2.Config, profileURL string) *Provider {
	return &Provider{name: name, conf: conf, profileURL: profileURL}
}

// Name identificador del proveedor (google, facebook).
func (p *Provider) Name() string { return p.name }

// AuthCodeURL URL de consentimiento a la que se redirige al usuario.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange canjea el código por un token y obtiene el perfil del usuario.
func (p *Provider) Exchange(ctx context.Context, code string) (*dto.OAuthProfile, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: falta el código de autorización", domain.ErrUnauthorized)
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: canje del código: %v", domain.ErrUnauthorized, p.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: perfil: %v", domain.ErrUpstream, p.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: perfil: %v", domain.ErrUpstream, p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: perfil: status %d", domain.ErrUpstream, p.name, resp.StatusCode)
	}
	// Google y Facebook devuelven los mismos nombres de campo; verified_email solo Google.
	var raw struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: perfil ilegible: %v", domain.ErrUpstream, p.name, err)
	}
	verified := raw.VerifiedEmail
	if p.name == entity.ProviderFacebook {
		// Facebook solo entrega el email cuando está confirmado.
		verified = raw.Email != ""
	}
	return &dto.OAuthProfile{
		Provider:      p.name,
		ProviderID:    raw.ID,
		Email:         raw.Email,
		EmailVerified: verified,
		Name:          raw.Name,
	}, nil
}

// NewProviders proveedores con credenciales configuradas, indexados por nombre.
func NewProviders(cfg config.OAuthConfig) map[string]*Provider {
	base := strings.TrimRight(cfg.RedirectBaseURL, "/")
	out := make(map[string]*Provider)
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		out[entity.ProviderGoogle] = NewProvider(entity.ProviderGoogle, &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  base + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}, googleProfileURL)
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		out[entity.ProviderFacebook] = NewProvider(entity.ProviderFacebook, &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			Endpoint:     facebook.Endpoint,
			RedirectURL:  base + "/api/auth/facebook/callback",
			Scopes:       []string{"email", "public_profile"},
		}, facebookProfileURL)
	}
	return out
}

// NewState valor aleatorio para el parámetro state (protección CSRF).
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
