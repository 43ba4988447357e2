package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercato_back_end/internal/config"
	"mercato_back_end/internal/handlers/checkout"
	"mercato_back_end/internal/models"
	"mercato_back_end/internal/payments"
	"mercato_back_end/internal/repository"
	"mercato_back_end/internal/routes"
	"mercato_back_end/internal/service"
	"mercato_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryStore, *payments.MockGateway, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	gw := payments.NewMockGateway("whsec_test")
	cfg := &config.Config{
		BaseURL:         "http://localhost:8080",
		StripeSecretKey: "sk_test_xxx",
		AdminJWTSecret:  "test_secret",
		AllowOrigins:    []string{"http://localhost:3000"},
	}
	svc := &service.Service{Store: store, Gateway: gw, Config: cfg}

	r := gin.New()
	routes.RegisterRoutes(r, cfg, checkout.New(svc))
	return r, store, gw, cfg
}

func seedSSD(store *repository.MemoryStore) int64 {
	return store.SeedProduct(models.Product{
		Name:     "SSD 500GB",
		Price:    decimal.RequireFromString("50.00"),
		Quantity: 100,
	})
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	return doRaw(r, method, path, raw, headers)
}

// doRaw envoie le corps tel quel, sans ré-encodage : indispensable pour les
// webhooks dont la signature porte sur les octets exacts
func doRaw(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSessionEndpoint(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	w := doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 2}},
	}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.URL == "" {
		t.Error("URL de paiement absente de la réponse")
	}
}

func TestCreateSessionWithoutStripeKey(t *testing.T) {
	r, store, _, cfg := newTestRouter(t)
	ssd := seedSSD(store)
	cfg.StripeSecretKey = ""

	w := doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 1}},
	}, nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, attendu 500 sans clé Stripe", w.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"email manquant", gin.H{"items": []gin.H{{"productId": ssd, "quantity": 1}}}, http.StatusBadRequest},
		{"panier vide", gin.H{"customerEmail": "client@test.fr", "items": []gin.H{}}, http.StatusBadRequest},
		{"quantité nulle", gin.H{"customerEmail": "client@test.fr", "items": []gin.H{{"productId": ssd, "quantity": 0}}}, http.StatusBadRequest},
		{"produit inconnu", gin.H{"customerEmail": "client@test.fr", "items": []gin.H{{"productId": 999, "quantity": 1}}}, http.StatusBadRequest},
		{"stock insuffisant", gin.H{"customerEmail": "client@test.fr", "items": []gin.H{{"productId": ssd, "quantity": 101}}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/checkout/create-session", tc.body, nil)
			if w.Code != tc.want {
				t.Errorf("code = %d, attendu %d, body: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCartSummaryEndpoint(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	// Le corps est le tableau de lignes lui-même, sans enveloppe
	w := doJSON(r, http.MethodPost, "/checkout/cart/summary",
		[]gin.H{{"productId": ssd, "quantity": 2}}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 100.00 {
		t.Errorf("total = %v, attendu 100.00", resp.Total)
	}
}

func TestCartSummaryEndpointRejectsWrappedBody(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	w := doJSON(r, http.MethodPost, "/checkout/cart/summary", gin.H{
		"items": []gin.H{{"productId": ssd, "quantity": 2}},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, attendu 400 pour un corps enveloppé", w.Code)
	}
}

func TestWebhookEndpointSignature(t *testing.T) {
	r, store, gw, _ := newTestRouter(t)
	ssd := seedSSD(store)
	ctx := context.Background()

	doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 2}},
	}, nil)

	payload, _ := json.Marshal(payments.Event{
		Type:            payments.EventPaymentIntentSucceeded,
		PaymentIntentID: "pi_test_001",
		Metadata:        gw.Sessions()[0].Metadata,
	})

	// Sans signature : rejet, aucune mutation
	w := doRaw(r, http.MethodPost, "/checkout/webhook", payload, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, attendu 400 sans signature", w.Code)
	}
	p, _ := store.GetProduct(ctx, ssd)
	if p.Quantity != 100 {
		t.Errorf("stock = %d, attendu 100 : un webhook non signé ne doit rien modifier", p.Quantity)
	}

	// Signature valide : la commande passe Paid et le stock est décrémenté
	w = doRaw(r, http.MethodPost, "/checkout/webhook", payload,
		map[string]string{"Stripe-Signature": gw.Sign(payload)})
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}
	p, _ = store.GetProduct(ctx, ssd)
	if p.Quantity != 98 {
		t.Errorf("stock = %d, attendu 98", p.Quantity)
	}
	order, _ := store.GetOrder(ctx, 1)
	if order.OrderStatus != models.OrderPaid {
		t.Errorf("OrderStatus = %s, attendu Paid", order.OrderStatus)
	}
}

func TestOrdersEndpoint(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 1}},
	}, nil)

	w := doJSON(r, http.MethodGet, "/checkout/orders?customerEmail=client@test.fr", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/checkout/orders?customerEmail=inconnu@test.fr", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("code = %d, attendu 404 pour un client inconnu", w.Code)
	}
}

func TestProductsEndpoint(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	seedSSD(store)

	w := doJSON(r, http.MethodGet, "/checkout/products", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200", w.Code)
	}
	// La réponse est un tableau nu, sans enveloppe
	var products []service.ProductResponse
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Name != "SSD 500GB" {
		t.Errorf("catalogue inattendu: %+v", products)
	}
}

func TestOrdersEndpointBareArray(t *testing.T) {
	r, store, _, _ := newTestRouter(t)
	ssd := seedSSD(store)

	doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 1}},
	}, nil)

	w := doJSON(r, http.MethodGet, "/checkout/orders?customerEmail=client@test.fr", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}
	var orders []service.OrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatalf("la réponse doit être un tableau nu: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNumber != 1001 {
		t.Errorf("commandes inattendues: %+v", orders)
	}
}

func TestRefundEndpointRequiresAdmin(t *testing.T) {
	r, store, gw, cfg := newTestRouter(t)
	ssd := seedSSD(store)

	doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 2}},
	}, nil)
	payload, _ := json.Marshal(payments.Event{
		Type:            payments.EventPaymentIntentSucceeded,
		PaymentIntentID: "pi_test_001",
		Metadata:        gw.Sessions()[0].Metadata,
	})
	doRaw(r, http.MethodPost, "/checkout/webhook", payload,
		map[string]string{"Stripe-Signature": gw.Sign(payload)})

	// Sans token
	w := doJSON(r, http.MethodPost, "/checkout/refund?orderId=1", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, attendu 401 sans token", w.Code)
	}

	// Avec token admin
	token, err := utils.GenerateAdminJWT(cfg.AdminJWTSecret, "admin@test.fr")
	if err != nil {
		t.Fatal(err)
	}
	w = doJSON(r, http.MethodPost, "/checkout/refund?orderId=1", nil,
		map[string]string{"Authorization": fmt.Sprintf("Bearer %s", token)})
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, attendu 200, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
		OrderID int64  `json:"orderId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" || resp.OrderID != 1 {
		t.Errorf("réponse inattendue: %s", w.Body.String())
	}

	p, _ := store.GetProduct(context.Background(), ssd)
	if p.Quantity != 100 {
		t.Errorf("stock = %d, attendu 100 après remboursement", p.Quantity)
	}
}

func TestRefundEndpointWithoutStripeKey(t *testing.T) {
	r, _, _, cfg := newTestRouter(t)
	token, err := utils.GenerateAdminJWT(cfg.AdminJWTSecret, "admin@test.fr")
	if err != nil {
		t.Fatal(err)
	}
	cfg.StripeSecretKey = ""

	w := doJSON(r, http.MethodPost, "/checkout/refund?orderId=1", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, attendu 500 sans clé Stripe", w.Code)
	}
	if !strings.Contains(w.Body.String(), "STRIPE_SECRET_KEY") {
		t.Errorf("le corps doit désigner la variable manquante: %s", w.Body.String())
	}
}

func TestUpstreamErrorBodyCarriesMessage(t *testing.T) {
	r, store, gw, _ := newTestRouter(t)
	ssd := seedSSD(store)
	gw.FailSessions = true

	w := doJSON(r, http.MethodPost, "/checkout/create-session", gin.H{
		"customerEmail": "client@test.fr",
		"items":         []gin.H{{"productId": ssd, "quantity": 1}},
	}, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, attendu 502", w.Code)
	}
	if !strings.Contains(w.Body.String(), "declined") {
		t.Errorf("le corps 502 doit porter le message du prestataire: %s", w.Body.String())
	}
}

func TestRefundEndpointValidation(t *testing.T) {
	r, _, _, cfg := newTestRouter(t)
	token, err := utils.GenerateAdminJWT(cfg.AdminJWTSecret, "admin@test.fr")
	if err != nil {
		t.Fatal(err)
	}
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := doJSON(r, http.MethodPost, "/checkout/refund?orderId=abc", nil, auth)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, attendu 400 pour orderId invalide", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/checkout/refund?orderId=404", nil, auth)
	if w.Code != http.StatusNotFound {
		t.Errorf("code = %d, attendu 404 pour une commande inconnue", w.Code)
	}
}
