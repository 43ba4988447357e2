package repository

import (
	"context"
	"errors"

	"mercato_back_end/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implémente Store sur un pool pgx. Les méthodes participent à
// la transaction courante si le contexte en porte une (cf. WithTransaction).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

type txKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q retourne la transaction du contexte, sinon le pool
func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *PostgresStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Transaction déjà ouverte : on ne l'imbrique pas
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- Produits ---

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), price, quantity FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, name, COALESCE(description, ''), price, quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AdjustProductQuantity(ctx context.Context, id int64, delta int64) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE products SET quantity = quantity + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Clients ---

func (s *PostgresStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, '')
		 FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, email, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, '')
		 FROM customers WHERE email = $1`, email).
		Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return s.q(ctx).QueryRow(ctx,
		`INSERT INTO customers (email, first_name, last_name, phone) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Email, c.FirstName, c.LastName, c.Phone).Scan(&c.ID)
}

// --- Commandes ---

func (s *PostgresStore) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.q(ctx).QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1001 FROM orders`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.q(ctx).QueryRow(ctx,
		`INSERT INTO orders (order_number, customer_id, created_at, order_status, payment_status,
		                     stripe_session_id, payment_intent_id, total_amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		o.OrderNumber, o.CustomerID, o.CreatedAt, o.OrderStatus, o.PaymentStatus,
		o.StripeSessionID, o.PaymentIntentID, o.TotalAmount).Scan(&o.ID)
}

func (s *PostgresStore) CreateOrderItem(ctx context.Context, it *models.OrderItem) error {
	return s.q(ctx).QueryRow(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		it.OrderID, it.ProductID, it.Quantity, it.UnitPrice).Scan(&it.ID)
}

const orderColumns = `id, order_number, customer_id, created_at, order_status, payment_status,
	stripe_session_id, payment_intent_id, total_amount, paid_at, COALESCE(refund_id, ''), refunded_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CreatedAt, &o.OrderStatus,
		&o.PaymentStatus, &o.StripeSessionID, &o.PaymentIntentID, &o.TotalAmount,
		&o.PaidAt, &o.RefundID, &o.RefundedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanOrder(s.q(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (s *PostgresStore) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanOrder(s.q(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE orders SET order_status = $2, payment_status = $3, stripe_session_id = $4,
		        payment_intent_id = $5, total_amount = $6, paid_at = $7,
		        refund_id = NULLIF($8, ''), refunded_at = $9
		 WHERE id = $1`,
		o.ID, o.OrderStatus, o.PaymentStatus, o.StripeSessionID,
		o.PaymentIntentID, o.TotalAmount, o.PaidAt, o.RefundID, o.RefundedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) OrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CreatedAt, &o.OrderStatus,
			&o.PaymentStatus, &o.StripeSessionID, &o.PaymentIntentID, &o.TotalAmount,
			&o.PaidAt, &o.RefundID, &o.RefundedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
