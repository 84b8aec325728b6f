package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/application/auth"
	"github.com/jhoicas/Apothecary-api/internal/application/distribution"
	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/inventory"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/application/procurement"
	"github.com/jhoicas/Apothecary-api/internal/application/usecase"
	"github.com/jhoicas/Apothecary-api/internal/domain"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/memory"
	"github.com/jhoicas/Apothecary-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Apothecary-api/internal/interfaces/http"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type fakeAssistant struct{ err error }

func (a fakeAssistant) Provider() string { return "fake" }

func (a fakeAssistant) Chat(_ context.Context, history []dto.ChatMessageDTO, message string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("eco(%d): %s", len(history), message), nil
}

func (a fakeAssistant) AnalyzeImage(_ context.Context, image []byte, mimeType, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("%s de %d bytes", mimeType, len(image)), nil
}

type fakeCatalog struct{}

func (fakeCatalog) Search(_ context.Context, q string) (*dto.JanAushadhiSearchResponse, error) {
	return &dto.JanAushadhiSearchResponse{
		Items:  []dto.JanAushadhiProductDTO{{DrugCode: "101", GenericName: "Paracetamol 500mg", MRP: decimal.RequireFromString("12.5")}},
		Source: "remote",
	}, nil
}

func (fakeCatalog) GetByCode(_ context.Context, code string) (*dto.JanAushadhiProductDTO, error) {
	if code != "101" {
		return nil, nil
	}
	return &dto.JanAushadhiProductDTO{DrugCode: "101", GenericName: "Paracetamol 500mg", UnitSize: "10 tab", MRP: decimal.RequireFromString("12.5"), Group: "Analgésicos"}, nil
}

type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (fakeProvider) Exchange(_ context.Context, code string) (*dto.OAuthProfile, error) {
	if code != "ok" {
		return nil, domain.ErrUnauthorized
	}
	return &dto.OAuthProfile{Provider: "google", ProviderID: "g-77", Email: "oauth@apothecary.test", EmailVerified: true, Name: "OAuth"}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Harness
// ──────────────────────────────────────────────────────────────────────────────

const frontendURL = "https://app.apothecary.test"

type testAPI struct {
	app *fiber.App
}

func newTestAPI(t *testing.T, assistant ports.AssistantService) *testAPI {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	productRepo := memory.NewProductRepository(store)
	supplierRepo := memory.NewSupplierRepository(store)
	poRepo := memory.NewPurchaseOrderRepository(store)
	receiptRepo := memory.NewPurchaseReceiptRepository(store)
	movRepo := memory.NewStockMovementRepository(store)
	distRepo := memory.NewDistributionRepository(store)
	userRepo := memory.NewUserRepository(store)

	reg := prometheus.NewRegistry()
	wf := metrics.NewWorkflow(reg)
	notifications := usecase.NewNotificationUseCase(memory.NewNotificationRepository(store), log)
	products := usecase.NewProductUseCase(productRepo, supplierRepo, tx, wf)

	deps := apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(userRepo, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer},
			ports.NopEnqueuer{}, log),
		ProductUC:       products,
		SupplierUC:      usecase.NewSupplierUseCase(supplierRepo),
		PurchaseOrderUC: procurement.NewPurchaseOrderUseCase(tx, poRepo, supplierRepo, productRepo, notifications, wf, log),
		ReceiptUC:       procurement.NewReceiptUseCase(tx, poRepo, receiptRepo, notifications, wf, log),
		DistributionUC:  distribution.NewUseCase(tx, distRepo, notifications, wf, log),
		MovementUC:      inventory.NewMovementUseCase(tx, movRepo, productRepo, notifications, wf, log),
		Replenishment:   inventory.NewReplenishmentUseCase(productRepo, 30),
		NotificationUC:  notifications,
		UserUC:          usecase.NewUserUseCase(userRepo),
		JanAushadhiUC:   usecase.NewJanAushadhiUseCase(fakeCatalog{}, products),
		AIUC:            usecase.NewAIUseCase(assistant),
		OAuthProviders:  map[string]apphttp.OAuthProvider{"google": fakeProvider{}},
		NewOAuthState:   func() (string, error) { return "estado-fijo", nil },
		JWTSecret:       testJWTSecret,
		FrontendURL:     frontendURL,
		AuthRateLimit:   1000,
		Log:             log,
	}
	return &testAPI{app: apphttp.NewApp(apphttp.AppConfig{Name: "apothecary-test", Gatherer: reg}, deps)}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// login registra al usuario y devuelve su token. El primero queda como admin.
func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: email, Password: "secreto-123", Name: email})
	require.Equal(t, http.StatusCreated, status, string(raw))
	status, raw = a.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "secreto-123"})
	require.Equal(t, http.StatusOK, status, string(raw))
	return decode[dto.LoginResponse](t, raw).Token
}

func (a *testAPI) supplier(t *testing.T, token string) string {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, "/api/suppliers", token, dto.CreateSupplierRequest{Name: "Droguería Central"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[dto.SupplierResponse](t, raw).ID
}

func (a *testAPI) product(t *testing.T, token, sku string, stock int64) string {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, "/api/products", token, dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku, StockQuantity: stock, ReorderLevel: 5,
		UnitPrice: decimal.NewFromInt(10), Cost: decimal.NewFromInt(6),
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[dto.ProductResponse](t, raw).ID
}

func (a *testAPI) setStatus(t *testing.T, token, path, status string) (int, []byte) {
	t.Helper()
	return a.do(t, http.MethodPatch, path, token, dto.StatusRequest{Status: status})
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras y recepciones
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoCompraHastaRecepcionParcial(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	supplierID := api.supplier(t, admin)
	productID := api.product(t, admin, "AMOX-500", 0)

	status, raw := api.do(t, http.MethodPost, "/api/purchase-orders", admin, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: productID, Quantity: 10, UnitPrice: decimal.NewFromInt(4)}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	po := decode[dto.PurchaseOrderResponse](t, raw)
	assert.Equal(t, "draft", po.Status)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(40)))

	base := "/api/purchase-orders/" + po.ID
	for _, s := range []string{"submitted", "approved", "shipped"} {
		status, raw = api.setStatus(t, admin, base+"/status", s)
		require.Equal(t, http.StatusOK, status, string(raw))
	}

	expiry := time.Now().AddDate(1, 0, 0)
	status, raw = api.do(t, http.MethodPost, "/api/purchase-receipts", admin, dto.CreateReceiptRequest{
		PurchaseOrderID: po.ID,
		Items: []dto.ReceiptItemRequest{{
			PurchaseOrderItemID: po.Items[0].ID,
			ReceivedQuantity:    4,
			BatchNumber:         "L-001",
			ExpiryDate:          &expiry,
		}},
		QualityCheck: dto.QualityCheckDTO{Passed: true},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	receipt := decode[dto.ReceiptResponse](t, raw)
	assert.Equal(t, "partially_received", receipt.PurchaseOrderStatus)

	status, raw = api.do(t, http.MethodGet, base, admin, nil)
	require.Equal(t, http.StatusOK, status)
	po = decode[dto.PurchaseOrderResponse](t, raw)
	assert.Equal(t, int64(4), po.Items[0].ReceivedQuantity)
	assert.Equal(t, int64(6), po.Items[0].RemainingQuantity)

	status, raw = api.do(t, http.MethodGet, base+"/receipts", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.ReceiptListResponse](t, raw).Items, 1)

	status, raw = api.do(t, http.MethodGet, "/api/stock-movements/products/"+productID+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	rec := decode[dto.ReconcileResponse](t, raw)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(4), rec.CurrentStock)
}

func TestAPI_RecepcionSinLoteDevuelveCamposYNoMueveStock(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	productID := api.product(t, admin, "IBU-400", 0)

	status, raw := api.do(t, http.MethodPost, "/api/purchase-receipts", admin, dto.CreateReceiptRequest{
		PurchaseOrderID: "8f0b7f0c-4d9b-4b8e-9a43-6f1b2d3c4e5f",
		Items:           []dto.ReceiptItemRequest{{ProductID: productID, ReceivedQuantity: 3}},
		QualityCheck:    dto.QualityCheckDTO{Passed: true},
	})
	require.Equal(t, http.StatusBadRequest, status)
	body := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Fields, "items[0].batch_number")

	status, raw = api.do(t, http.MethodGet, "/api/stock-movements?product_id="+productID, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.MovementListResponse](t, raw).Items)
}

func TestAPI_AprobarOrdenRequiereAdmin(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	staff := api.login(t, "staff@apothecary.test")
	supplierID := api.supplier(t, admin)
	productID := api.product(t, admin, "CET-10", 0)

	status, raw := api.do(t, http.MethodPost, "/api/purchase-orders", staff, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: productID, Quantity: 2, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	path := "/api/purchase-orders/" + decode[dto.PurchaseOrderResponse](t, raw).ID + "/status"

	status, _ = api.setStatus(t, staff, path, "submitted")
	require.Equal(t, http.StatusOK, status)
	status, raw = api.setStatus(t, staff, path, "approved")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", decode[dto.ErrorResponse](t, raw).Code)

	status, _ = api.setStatus(t, admin, path, "approved")
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_TransicionInvalidaDevuelve400(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	supplierID := api.supplier(t, admin)

	status, raw := api.do(t, http.MethodPost, "/api/purchase-orders", admin, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Items:      []dto.PurchaseOrderItemRequest{{ExternalRef: "EXT-1", ProductName: "Jeringas", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.PurchaseOrderResponse](t, raw).ID

	status, raw = api.setStatus(t, admin, "/api/purchase-orders/"+id+"/status", "shipped")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = api.setStatus(t, admin, "/api/purchase-orders/"+id+"/status", "received")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[dto.ErrorResponse](t, raw).Fields, "status")

	status, raw = api.do(t, http.MethodGet, "/api/purchase-orders/"+id, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "draft", decode[dto.PurchaseOrderResponse](t, raw).Status)
}

func TestAPI_ValidacionDelBodyConRutaDeCampos(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")

	status, raw := api.do(t, http.MethodPost, "/api/purchase-orders", admin, map[string]any{
		"items": []map[string]any{{"product_id": "no-uuid", "quantity": 0}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	body := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Fields, "supplier_id")
	assert.Contains(t, body.Fields, "items[0].quantity")
	assert.Contains(t, body.Fields, "items[0].product_id")
}

func TestAPI_BodyIlegible(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{roto"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "INVALID_BODY")
}

// ──────────────────────────────────────────────────────────────────────────────
// Distribución y stock
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_DistribucionSinStockDevuelve409(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	productID := api.product(t, admin, "SAL-100", 2)

	status, raw := api.do(t, http.MethodPost, "/api/distributions", admin, dto.CreateDistributionRequest{
		Recipient: "Hospital San Juan", RecipientType: "hospital",
		Items: []dto.DistributionItemRequest{{ProductID: productID, Quantity: 5}},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = api.do(t, http.MethodGet, "/api/products/"+productID, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), decode[dto.ProductResponse](t, raw).StockQuantity)
}

func TestAPI_DevolucionDeDistribucionReintegraStock(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	productID := api.product(t, admin, "OME-20", 10)

	status, raw := api.do(t, http.MethodPost, "/api/distributions", admin, dto.CreateDistributionRequest{
		Recipient: "Farmacia Norte", RecipientType: "pharmacy",
		Items: []dto.DistributionItemRequest{{ProductID: productID, Quantity: 4}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.DistributionResponse](t, raw).ID

	status, raw = api.setStatus(t, admin, "/api/distributions/"+id+"/status", "returned")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "returned", decode[dto.DistributionResponse](t, raw).Status)

	status, raw = api.do(t, http.MethodGet, "/api/products/"+productID, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(10), decode[dto.ProductResponse](t, raw).StockQuantity)
}

func TestAPI_AjusteManualYListadoDeReposicion(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	productID := api.product(t, admin, "LOR-10", 8)

	status, raw := api.do(t, http.MethodPost, "/api/stock-movements", admin, dto.CreateMovementRequest{
		ProductID: productID, Type: "out", Quantity: 5, Reason: "Rotura",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	mov := decode[dto.MovementResponse](t, raw)
	assert.Equal(t, int64(8), mov.PreviousStock)
	assert.Equal(t, int64(3), mov.NewStock)

	status, raw = api.do(t, http.MethodGet, "/api/products/low-stock", admin, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]dto.ReplenishmentSuggestionDTO](t, raw)
	require.Len(t, list, 1)
	assert.Equal(t, productID, list[0].ProductID)

	status, raw = api.do(t, http.MethodGet, "/api/notifications?unread=true", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[dto.NotificationListResponse](t, raw).Items)

	status, raw = api.do(t, http.MethodPatch, "/api/notifications/read-all", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Positive(t, decode[dto.MarkAllReadResponse](t, raw).Updated)
}

func TestAPI_EliminarProductoSoloAdmin(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	staff := api.login(t, "staff@apothecary.test")
	productID := api.product(t, admin, "VIT-C", 0)

	status, _ := api.do(t, http.MethodDelete, "/api/products/"+productID, staff, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(t, http.MethodDelete, "/api/products/"+productID, admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(t, http.MethodGet, "/api/products/"+productID, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth, usuarios y OAuth
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_LoginYPerfil(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	token := api.login(t, "admin@apothecary.test")

	status, raw := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[dto.UserResponse](t, raw)
	assert.Equal(t, "admin", me.Role)

	status, raw = api.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@apothecary.test", Password: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = api.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "admin@apothecary.test", Password: "secreto-123"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EMAIL_EXISTS", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_RutasProtegidasSinToken(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	for _, path := range []string{"/api/products", "/api/purchase-orders", "/api/notifications", "/api/auth/me"} {
		status, _ := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestAPI_UsuariosSoloAdmin(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	staff := api.login(t, "staff@apothecary.test")

	status, _ := api.do(t, http.MethodGet, "/api/users", staff, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := api.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[dto.UserListResponse](t, raw).Items
	require.Len(t, users, 2)

	var staffID string
	for _, u := range users {
		if u.Role == "staff" {
			staffID = u.ID
		}
	}
	status, raw = api.do(t, http.MethodPatch, "/api/users/"+staffID+"/role", admin, dto.UpdateRoleRequest{Role: "admin"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "admin", decode[dto.UserResponse](t, raw).Role)
}

func TestAPI_OAuthRedirigeConStateYCookie(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/google", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://accounts.test/auth?state=estado-fijo", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "oauth_state=estado-fijo")

	resp, err = api.app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/facebook", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_OAuthCallback(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	var setCookie string
	callback := func(query, cookie string) *url.URL {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?"+query, nil)
		if cookie != "" {
			req.Header.Set("Cookie", "oauth_state="+cookie)
		}
		resp, err := api.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		setCookie = strings.ToLower(resp.Header.Get("Set-Cookie"))
		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		return loc
	}

	loc := callback("code=ok&state=otro", "estado-fijo")
	assert.Equal(t, "invalid_state", loc.Query().Get("error"))

	loc = callback("code=malo&state=estado-fijo", "estado-fijo")
	assert.Equal(t, "exchange_failed", loc.Query().Get("error"))

	loc = callback("code=ok&state=estado-fijo", "estado-fijo")
	assert.Equal(t, "/oauth/callback", loc.Path)
	assert.Equal(t, "app.apothecary.test", loc.Host)
	token := loc.Query().Get("token")
	require.NotEmpty(t, token)
	user := decode[dto.UserResponse](t, []byte(loc.Query().Get("user")))
	assert.Equal(t, "oauth@apothecary.test", user.Email)
	assert.Equal(t, "google", user.Provider)

	// El state se invalida en la misma ruta donde se emitió.
	assert.Contains(t, setCookie, "oauth_state=")
	assert.Contains(t, setCookie, "path=/api/auth")
	assert.Contains(t, setCookie, "1970")

	status, _ := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo JanAushadhi y MaoMao AI
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_JanAushadhiBusquedaEImportacion(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")

	status, _ := api.do(t, http.MethodGet, "/api/janaushadhi/products?search=p", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := api.do(t, http.MethodGet, "/api/janaushadhi/products?search=para", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.JanAushadhiSearchResponse](t, raw).Items, 1)

	status, raw = api.do(t, http.MethodPost, "/api/janaushadhi/import", admin, dto.JanAushadhiImportRequest{DrugCode: "101"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	p := decode[dto.ProductResponse](t, raw)
	assert.Equal(t, "JA-101", p.SKU)
	assert.Equal(t, int64(0), p.StockQuantity)

	status, _ = api.do(t, http.MethodPost, "/api/janaushadhi/import", admin, dto.JanAushadhiImportRequest{DrugCode: "101"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(t, http.MethodPost, "/api/janaushadhi/import", admin, dto.JanAushadhiImportRequest{DrugCode: "999"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_ChatConAsistente(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	token := api.login(t, "admin@apothecary.test")

	status, raw := api.do(t, http.MethodPost, "/api/ai/chat", token, dto.ChatRequest{
		Message: "¿Dosis de paracetamol?",
		History: []dto.ChatMessageDTO{{Role: "user", Content: "hola"}, {Role: "assistant", Content: "hola"}},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	out := decode[dto.ChatResponse](t, raw)
	assert.Equal(t, "eco(2): ¿Dosis de paracetamol?", out.Reply)
	assert.Equal(t, "fake", out.Provider)
}

func TestAPI_FalloDelProveedorIADevuelve502(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{err: fmt.Errorf("%w: gemini caído", domain.ErrUpstream)})
	token := api.login(t, "admin@apothecary.test")

	status, raw := api.do(t, http.MethodPost, "/api/ai/chat", token, dto.ChatRequest{Message: "hola"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "UPSTREAM_ERROR", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_ErrorNoControladoDevuelve500(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{err: errors.New("inesperado")})
	token := api.login(t, "admin@apothecary.test")

	status, raw := api.do(t, http.MethodPost, "/api/ai/chat", token, dto.ChatRequest{Message: "hola"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL", decode[dto.ErrorResponse](t, raw).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Endpoints públicos
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_HealthYMetricas(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")
	api.product(t, admin, "ZINC-1", 3)

	status, raw := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"ok"`)

	status, raw = api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "apothecary_stock_movements_total")

	status, raw = api.do(t, http.MethodGet, "/api/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(raw), "NOT_FOUND")
}

func TestAPI_IdentificadorMalformadoDevuelve404(t *testing.T) {
	api := newTestAPI(t, fakeAssistant{})
	admin := api.login(t, "admin@apothecary.test")

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/products/no-es-uuid", nil},
		{http.MethodDelete, "/api/suppliers/123", nil},
		{http.MethodGet, "/api/purchase-orders/abc", nil},
		{http.MethodPatch, "/api/purchase-orders/abc/status", dto.StatusRequest{Status: "submitted"}},
		{http.MethodGet, "/api/stock-movements/products/xyz/reconcile", nil},
		{http.MethodPatch, "/api/notifications/n-1/read", nil},
	} {
		status, raw := api.do(t, tc.method, tc.path, admin, tc.body)
		assert.Equal(t, http.StatusNotFound, status, tc.path)
		assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code, tc.path)
	}
}
