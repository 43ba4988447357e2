package service

import (
	"context"
	"errors"
	"testing"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/payments"
)

// payOrder crée une commande et la passe Paid via les événements webhook
func payOrder(t *testing.T, svc *Service, gw *payments.MockGateway, items []models.CartItem) int64 {
	t.Helper()

	completed, succeeded := createPendingOrder(t, svc, gw, items)
	ctx := context.Background()
	if err := svc.HandleEvent(ctx, completed); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleEvent(ctx, succeeded); err != nil {
		t.Fatal(err)
	}

	orderID := int64(len(gw.Sessions()))
	return orderID
}

func TestRefundRestoresStock(t *testing.T) {
	svc, store, gw := newTestService(t)
	ssd, _, _ := seedCatalogue(store)
	ctx := context.Background()

	orderID := payOrder(t, svc, gw, []models.CartItem{{ProductID: ssd, Quantity: 2}})

	p, _ := store.GetProduct(ctx, ssd)
	if p.Quantity != 98 {
		t.Fatalf("stock avant remboursement = %d, attendu 98", p.Quantity)
	}

	order, err := svc.RefundOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("RefundOrder: %v", err)
	}
	if order.OrderStatus != models.OrderRefunded || order.PaymentStatus != models.PaymentRefunded {
		t.Errorf("statuts = %s/%s, attendu Refunded/Refunded", order.OrderStatus, order.PaymentStatus)
	}
	if order.RefundID == "" || order.RefundedAt == nil {
		t.Error("RefundID/RefundedAt non renseignés")
	}

	p, _ = store.GetProduct(ctx, ssd)
	if p.Quantity != 100 {
		t.Errorf("stock après remboursement = %d, attendu 100", p.Quantity)
	}

	refunds := gw.Refunds()
	if len(refunds) != 1 {
		t.Fatalf("remboursements prestataire = %d, attendu 1", len(refunds))
	}
}

func TestRefundPendingRejected(t *testing.T) {
	svc, store, gw := newTestService(t)
	ssd, _, _ := seedCatalogue(store)

	createPendingOrder(t, svc, gw, []models.CartItem{{ProductID: ssd, Quantity: 1}})

	_, err := svc.RefundOrder(context.Background(), 1)
	if !errors.Is(err, ErrNotRefundable) {
		t.Errorf("err = %v, attendu ErrNotRefundable", err)
	}
	if len(gw.Refunds()) != 0 {
		t.Error("aucun remboursement ne doit partir pour une commande non payée")
	}
}

func TestRefundTwiceRejected(t *testing.T) {
	svc, store, gw := newTestService(t)
	ssd, _, _ := seedCatalogue(store)
	ctx := context.Background()

	orderID := payOrder(t, svc, gw, []models.CartItem{{ProductID: ssd, Quantity: 1}})

	if _, err := svc.RefundOrder(ctx, orderID); err != nil {
		t.Fatalf("premier remboursement: %v", err)
	}
	_, err := svc.RefundOrder(ctx, orderID)
	if !errors.Is(err, ErrAlreadyRefunded) {
		t.Errorf("err = %v, attendu ErrAlreadyRefunded", err)
	}
	if len(gw.Refunds()) != 1 {
		t.Errorf("remboursements prestataire = %d, attendu 1 seul", len(gw.Refunds()))
	}

	// Le stock n'est restitué qu'une fois
	p, _ := store.GetProduct(ctx, ssd)
	if p.Quantity != 100 {
		t.Errorf("stock = %d, attendu 100", p.Quantity)
	}
}

func TestRefundUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RefundOrder(context.Background(), 404)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, attendu ErrOrderNotFound", err)
	}
}

func TestRefundGatewayFailure(t *testing.T) {
	svc, store, gw := newTestService(t)
	ssd, _, _ := seedCatalogue(store)
	ctx := context.Background()

	orderID := payOrder(t, svc, gw, []models.CartItem{{ProductID: ssd, Quantity: 2}})
	gw.FailRefunds = true

	_, err := svc.RefundOrder(ctx, orderID)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, attendu UpstreamError", err)
	}

	// L'échec prestataire ne doit toucher ni statut ni stock
	order, _ := store.GetOrder(ctx, orderID)
	if order.PaymentStatus != models.PaymentPaid {
		t.Errorf("PaymentStatus = %s, attendu Paid", order.PaymentStatus)
	}
	p, _ := store.GetProduct(ctx, ssd)
	if p.Quantity != 98 {
		t.Errorf("stock = %d, attendu 98", p.Quantity)
	}
}
