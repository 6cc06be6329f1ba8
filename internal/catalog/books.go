package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/kv"
	"github.com/xela07ax/securestate/internal/security"
	"github.com/xela07ax/securestate/internal/store"
)

const (
	CustomersKey = "saved-customers"
	ProductsKey  = "saved-products"
)

// CustomerBook — список покупателей. Контактные данные хранятся обфусцированными.
type CustomerBook struct {
	store *store.Store[[]domain.Customer]
	sc    *security.Context
	newID func() string
}

func OpenCustomerBook(ctx context.Context, sc *security.Context, backend kv.Backend) *CustomerBook {
	return &CustomerBook{
		store: security.OpenStore(ctx, sc, backend, CustomersKey, []domain.Customer{}, true),
		sc:    sc,
		newID: uuid.NewString,
	}
}

func (b *CustomerBook) Key() string { return b.store.Key() }
func (b *CustomerBook) Refresh(ctx context.Context) { b.store.Refresh(ctx) }
func (b *CustomerBook) List() []domain.Customer { return b.store.Get() }
func (b *CustomerBook) LastError() error { return b.store.LastError() }

// Save проверяет форму и добавляет покупателя (id == "") или заменяет существующего.
func (b *CustomerBook) Save(ctx context.Context, id string, in CustomerInput) (domain.Customer, bool) {
	c, ok := ValidateCustomer(b.sc.Validator(), in)
	if !ok {
		return domain.Customer{}, false
	}

	if id == "" {
		c.ID = b.newID()
		b.store.Update(ctx, func(prev []domain.Customer) []domain.Customer {
			next := make([]domain.Customer, 0, len(prev)+1)
			return append(append(next, prev...), c)
		})
		return c, true
	}

	c.ID = id
	b.store.Update(ctx, func(prev []domain.Customer) []domain.Customer {
		next := make([]domain.Customer, len(prev))
		for i, p := range prev {
			if p.ID == id {
				p = c
			}
			next[i] = p
		}
		return next
	})
	return c, true
}

func (b *CustomerBook) Delete(ctx context.Context, id string) {
	b.store.Update(ctx, func(prev []domain.Customer) []domain.Customer {
		next := make([]domain.Customer, 0, len(prev))
		for _, p := range prev {
			if p.ID != id {
				next = append(next, p)
			}
		}
		return next
	})
}

// Inventory — склад товаров, хранится без обфускации.
type Inventory struct {
	store *store.Store[[]domain.Product]
	sc    *security.Context
	newID func() string
}

func OpenInventory(ctx context.Context, sc *security.Context, backend kv.Backend) *Inventory {
	return &Inventory{
		store: security.OpenStore(ctx, sc, backend, ProductsKey, []domain.Product{}, false),
		sc:    sc,
		newID: uuid.NewString,
	}
}

func (inv *Inventory) Key() string { return inv.store.Key() }
func (inv *Inventory) Refresh(ctx context.Context) { inv.store.Refresh(ctx) }
func (inv *Inventory) List() []domain.Product { return inv.store.Get() }
func (inv *Inventory) LastError() error { return inv.store.LastError() }

func (inv *Inventory) Save(ctx context.Context, id string, in ProductInput) (domain.Product, bool) {
	p, ok := ValidateProduct(inv.sc.Validator(), in)
	if !ok {
		return domain.Product{}, false
	}

	if id == "" {
		p.ID = inv.newID()
		inv.store.Update(ctx, func(prev []domain.Product) []domain.Product {
			next := make([]domain.Product, 0, len(prev)+1)
			return append(append(next, prev...), p)
		})
		return p, true
	}

	p.ID = id
	inv.store.Update(ctx, func(prev []domain.Product) []domain.Product {
		next := make([]domain.Product, len(prev))
		for i, old := range prev {
			if old.ID == id {
				old = p
			}
			next[i] = old
		}
		return next
	})
	return p, true
}

func (inv *Inventory) Delete(ctx context.Context, id string) {
	inv.store.Update(ctx, func(prev []domain.Product) []domain.Product {
		next := make([]domain.Product, 0, len(prev))
		for _, p := range prev {
			if p.ID != id {
				next = append(next, p)
			}
		}
		return next
	})
}

// LowStock — товары, остаток которых дошел до порога.
func (inv *Inventory) LowStock() []domain.Product {
	var out []domain.Product
	for _, p := range inv.store.Get() {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}
