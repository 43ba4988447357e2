package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// MockGateway simule le prestataire pour les tests : sessions et
// remboursements en mémoire, webhooks signés HMAC-SHA256 sur le corps brut
type MockGateway struct {
	Secret       string
	FailSessions bool
	FailRefunds  bool

	mu       sync.Mutex
	sessions []SessionRequest
	refunds  []string
}

func NewMockGateway(secret string) *MockGateway {
	return &MockGateway{Secret: secret}
}

var _ Gateway = (*MockGateway)(nil)

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if g.FailSessions {
		return nil, errors.New("session creation declined")
	}
	g.mu.Lock()
	g.sessions = append(g.sessions, req)
	n := len(g.sessions)
	g.mu.Unlock()

	id := fmt.Sprintf("cs_test_%03d", n)
	return &Session{
		ID:              id,
		URL:             "https://checkout.test/pay/" + id,
		PaymentIntentID: fmt.Sprintf("pi_test_%03d", n),
	}, nil
}

func (g *MockGateway) CreateRefund(ctx context.Context, paymentIntentID string) (string, error) {
	if g.FailRefunds {
		return "", errors.New("refund declined")
	}
	g.mu.Lock()
	g.refunds = append(g.refunds, paymentIntentID)
	n := len(g.refunds)
	g.mu.Unlock()
	return fmt.Sprintf("re_test_%03d", n), nil
}

func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.Secret == "" || signature == "" {
		return nil, ErrSignature
	}
	if !hmac.Equal([]byte(signature), []byte(g.Sign(payload))) {
		return nil, ErrSignature
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Sign produit la signature attendue par ParseWebhook ; utilisé par les tests
// pour fabriquer des webhooks valides
func (g *MockGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sessions retourne une copie des requêtes de session reçues
func (g *MockGateway) Sessions() []SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SessionRequest, len(g.sessions))
	copy(out, g.sessions)
	return out
}

// Refunds retourne les payment intents remboursés
func (g *MockGateway) Refunds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.refunds))
	copy(out, g.refunds)
	return out
}
