package repository

import (
	"context"
	"sync"

	"mercato_back_end/internal/models"
)

// MemoryStore est l'implémentation en mémoire de Store, utilisée par les
// tests. La "transaction" est un verrou d'écriture global : les méthodes
// appelées depuis WithTransaction sautent leurs verrous internes grâce à un
// marqueur dans le contexte.
type MemoryStore struct {
	mu          sync.RWMutex
	nextProdID  int64
	nextCustID  int64
	nextOrderID int64
	nextItemID  int64
	products    map[int64]models.Product
	customers   map[int64]models.Customer
	orders      map[int64]models.Order
	items       map[int64][]models.OrderItem // par commande
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:  1,
		nextCustID:  1,
		nextOrderID: 1,
		nextItemID:  1,
		products:    make(map[int64]models.Product),
		customers:   make(map[int64]models.Customer),
		orders:      make(map[int64]models.Order),
		items:       make(map[int64][]models.OrderItem),
	}
}

var _ Store = (*MemoryStore)(nil)

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Unlock()
	}
}

func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Pas de rollback en mémoire : suffisant pour les tests, qui ne
	// vérifient l'état qu'après des transactions abouties ou des échecs
	// survenus avant la première écriture
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

// --- Produits ---

// SeedProduct insère un produit de test et retourne son id
func (m *MemoryStore) SeedProduct(p models.Product) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextProdID
	m.nextProdID++
	m.products[p.ID] = p
	return p.ID
}

func (m *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]models.Product, 0, len(m.products))
	for id := int64(1); id < m.nextProdID; id++ {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) AdjustProductQuantity(ctx context.Context, id int64, delta int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Quantity += delta
	m.products[id] = p
	return nil
}

// --- Clients ---

func (m *MemoryStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (m *MemoryStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	for _, c := range m.customers {
		if c.Email == email {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	c.ID = m.nextCustID
	m.nextCustID++
	m.customers[c.ID] = *c
	return nil
}

// --- Commandes ---

func (m *MemoryStore) NextOrderNumber(ctx context.Context) (int64, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	return (m.nextOrderID - 1) + 1001, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	o.ID = m.nextOrderID
	m.nextOrderID++
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) CreateOrderItem(ctx context.Context, it *models.OrderItem) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	it.ID = m.nextItemID
	m.nextItemID++
	m.items[it.OrderID] = append(m.items[it.OrderID], *it)
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

// LockOrder : le verrou global de WithTransaction sérialise déjà tout
func (m *MemoryStore) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) OrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	var out []models.Order
	for id := int64(1); id < m.nextOrderID; id++ {
		if o, ok := m.orders[id]; ok && o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) ItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	items := m.items[orderID]
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out, nil
}
