package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"mercato_back_end/internal/models"
	"mercato_back_end/internal/repository"
)

// Les DTO exposent les montants en nombres JSON, les enums en chaînes et
// jamais les identifiants Stripe.
type OrderItemResponse struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

type OrderResponse struct {
	ID            int64               `json:"id"`
	OrderNumber   int64               `json:"orderNumber"`
	CreatedAt     time.Time           `json:"createdAt"`
	OrderStatus   models.OrderStatus   `json:"orderStatus"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	TotalAmount   float64             `json:"totalAmount"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	RefundedAt    *time.Time          `json:"refundedAt,omitempty"`
	Items         []OrderItemResponse `json:"items"`
}

type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
}

// OrdersByEmail renvoie l'historique d'un client, lignes incluses, dans
// l'ordre de création.
func (s *Service) OrdersByEmail(ctx context.Context, email string) ([]OrderResponse, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}

	customer, err := s.Store.GetCustomerByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	orders, err := s.Store.OrdersByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := s.Store.ItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}

		resp := OrderResponse{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			CreatedAt:     o.CreatedAt,
			OrderStatus:   o.OrderStatus,
			PaymentStatus: o.PaymentStatus,
			TotalAmount:   o.TotalAmount.InexactFloat64(),
			PaidAt:        o.PaidAt,
			RefundedAt:    o.RefundedAt,
			Items:         make([]OrderItemResponse, 0, len(items)),
		}
		for _, it := range items {
			name, ok := names[it.ProductID]
			if !ok {
				if p, err := s.Store.GetProduct(ctx, it.ProductID); err == nil {
					name = p.Name
				}
				names[it.ProductID] = name
			}
			resp.Items = append(resp.Items, OrderItemResponse{
				ProductID:   it.ProductID,
				ProductName: name,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice.InexactFloat64(),
				Total:       it.Total().InexactFloat64(),
			})
		}
		out = append(out, resp)
	}
	return out, nil
}

// Products renvoie le catalogue, servi depuis Redis quand le cache est chaud.
func (s *Service) Products(ctx context.Context) ([]ProductResponse, error) {
	if raw, ok := s.Cache.Get(ctx); ok {
		var cached []ProductResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Printf("⚠️ Cache produits corrompu, relecture en base")
	}

	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.InexactFloat64(),
			Quantity:    p.Quantity,
		})
	}

	if raw, err := json.Marshal(out); err == nil {
		s.Cache.Set(ctx, raw)
	}
	return out, nil
}
