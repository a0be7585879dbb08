package cart

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/metrics"
)

// SessionKey is where the cart lives in the visitor session.
const SessionKey = "cart"

// Store is the per-visitor key/value state the cart is read from and
// written back to as a whole.
type Store interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Service applies cart operations to a visitor's stored cart.
type Service interface {
	Load(store Store) Cart
	Add(ctx context.Context, store Store, productID uint) error
	Remove(ctx context.Context, store Store, productID uint) error
	Increase(ctx context.Context, store Store, productID uint) error
	Decrease(ctx context.Context, store Store, productID uint) error
	View(ctx context.Context, store Store) (View, error)
}

type service struct {
	catalog Catalog
	metrics *metrics.CartMetrics
}

// NewService builds a cart service pricing lines through catalog.
func NewService(catalog Catalog, m *metrics.CartMetrics) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{catalog: catalog, metrics: m}, nil
}

// Load returns the stored cart. A missing or unreadable value is an empty cart.
func (s *service) Load(store Store) Cart {
	var c Cart
	if store == nil {
		return c
	}
	if found, err := store.Get(SessionKey, &c); !found || err != nil {
		return Cart{}
	}
	return c
}

func (s *service) Add(ctx context.Context, store Store, productID uint) error {
	if err := s.ensureExists(ctx, productID); err != nil {
		return err
	}
	return s.apply(store, "add", productID, AddItem)
}

func (s *service) Increase(ctx context.Context, store Store, productID uint) error {
	if err := s.ensureExists(ctx, productID); err != nil {
		return err
	}
	return s.apply(store, "increase", productID, IncreaseQuantity)
}

func (s *service) Remove(ctx context.Context, store Store, productID uint) error {
	return s.apply(store, "remove", productID, RemoveItem)
}

func (s *service) Decrease(ctx context.Context, store Store, productID uint) error {
	return s.apply(store, "decrease", productID, DecreaseQuantity)
}

// View materializes the stored cart. Stale entries are dropped from the
// stored cart and reported through View.StaleIDs.
func (s *service) View(ctx context.Context, store Store) (View, error) {
	current := s.Load(store)
	view, err := Materialize(ctx, current, s.catalog)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart products")
	}

	stale := view.StaleIDs()
	if len(stale) == 0 {
		return view, nil
	}
	pruned := current
	for _, id := range stale {
		pruned = RemoveItem(pruned, id)
	}
	if err := s.save(store, pruned); err != nil {
		return View{}, err
	}
	s.metrics.AddPruned(len(stale))
	return view, nil
}

func (s *service) apply(store Store, op string, productID uint, fn func(Cart, uint) Cart) error {
	if productID == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	next := fn(s.Load(store), productID)
	if err := s.save(store, next); err != nil {
		return err
	}
	s.metrics.IncMutation(op)
	return nil
}

func (s *service) save(store Store, c Cart) error {
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "session unavailable")
	}
	if err := store.Set(SessionKey, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save cart")
	}
	return nil
}

func (s *service) ensureExists(ctx context.Context, productID uint) error {
	if productID == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	found, err := s.catalog.FindByIDs(ctx, []uint{productID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	if _, ok := found[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
