package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/oauth"
	"github.com/jhoicas/Apothecary-api/pkg/config"
)

func fakeProviderServer(t *testing.T, profileStatus int, profile string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "codigo-ok" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(profileStatus)
		_, _ = w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *oauth.Provider {
	return newNamedProvider(srv, "google")
}

func newNamedProvider(srv *httptest.Server, name string) *oauth.Provider {
	return oauth.NewProvider(name, &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: "http://api.test/api/auth/google/callback",
	}, srv.URL+"/me")
}

func TestExchange_DevuelvePerfil(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusOK, `{"id":"g-1","email":"ana@farmacia.test","name":"Ana","verified_email":true}`)
	p := newTestProvider(srv)

	profile, err := p.Exchange(context.Background(), "codigo-ok")
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "g-1", profile.ProviderID)
	assert.Equal(t, "ana@farmacia.test", profile.Email)
	assert.Equal(t, "Ana", profile.Name)
	assert.True(t, profile.EmailVerified)
}

func TestExchange_GoogleSinVerificarNoConfirmaEmail(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusOK, `{"id":"g-2","email":"otro@farmacia.test","verified_email":false}`)
	profile, err := newTestProvider(srv).Exchange(context.Background(), "codigo-ok")
	require.NoError(t, err)
	assert.False(t, profile.EmailVerified)

	srv = fakeProviderServer(t, http.StatusOK, `{"id":"g-3","email":"sin-campo@farmacia.test"}`)
	profile, err = newTestProvider(srv).Exchange(context.Background(), "codigo-ok")
	require.NoError(t, err)
	assert.False(t, profile.EmailVerified)
}

func TestExchange_FacebookConEmailLoConfirma(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusOK, `{"id":"fb-1","email":"ana@farmacia.test","name":"Ana"}`)
	profile, err := newNamedProvider(srv, "facebook").Exchange(context.Background(), "codigo-ok")
	require.NoError(t, err)
	assert.True(t, profile.EmailVerified)

	srv = fakeProviderServer(t, http.StatusOK, `{"id":"fb-2","name":"Sin Email"}`)
	profile, err = newNamedProvider(srv, "facebook").Exchange(context.Background(), "codigo-ok")
	require.NoError(t, err)
	assert.False(t, profile.EmailVerified)
}

func TestExchange_CodigoInvalido(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusOK, `{}`)
	_, err := newTestProvider(srv).Exchange(context.Background(), "otro")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = newTestProvider(srv).Exchange(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestExchange_PerfilFallaComoUpstream(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusInternalServerError, `boom`)
	_, err := newTestProvider(srv).Exchange(context.Background(), "codigo-ok")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestAuthCodeURL_IncluyeStateYRedirect(t *testing.T) {
	srv := fakeProviderServer(t, http.StatusOK, `{}`)
	raw := newTestProvider(srv).AuthCodeURL("st-1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "http://api.test/api/auth/google/callback", q.Get("redirect_uri"))
}

func TestNewProviders_SoloLosConfigurados(t *testing.T) {
	ps := oauth.NewProviders(config.OAuthConfig{
		GoogleClientID:     "g",
		GoogleClientSecret: "s",
		FacebookClientID:   "f",
		RedirectBaseURL:    "https://api.farmacia.test/",
	})
	require.Contains(t, ps, "google")
	assert.NotContains(t, ps, "facebook")
	assert.Contains(t, ps["google"].AuthCodeURL("x"), url.QueryEscape("https://api.farmacia.test/api/auth/google/callback"))
}

func TestNewState_Aleatorio(t *testing.T) {
	a, err := oauth.NewState()
	require.NoError(t, err)
	b, err := oauth.NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
