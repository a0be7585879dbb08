package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/api/validators"
	"github.com/angelmondragon/fruitshop-backend/api/views"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

const cartPath = "/cart/"

type cartMutation func(ctx context.Context, store cart.Store, productID uint) error

// CartAdd puts one more unit of a product in the cart.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutationHandler(svc.Add, logg)
}

// CartRemove drops a product from the cart whatever its quantity.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutationHandler(svc.Remove, logg)
}

// CartIncrease bumps the quantity of a product by one.
func CartIncrease(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutationHandler(svc.Increase, logg)
}

// CartDecrease lowers the quantity by one, removing the line at zero.
func CartDecrease(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutationHandler(svc.Decrease, logg)
}

func cartMutationHandler(apply cartMutation, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := apply(r.Context(), sessionStore(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.Redirect(w, r, cartPath)
	}
}

// CartView prices the cart against the catalog. Entries whose product no
// longer exists are pruned and reported to the visitor.
func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		view, err := svc.View(ctx, sessionStore(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if stale := len(view.StaleIDs()); stale > 0 {
			if logg != nil {
				logg.Info(logg.WithField(ctx, "stale_entries", stale), "cart.pruned")
			}
			flash(ctx, logg, session.LevelWarning, staleMessage(stale))
		}
		responses.Render(ctx, logg, w, http.StatusOK, views.PageCart, newPage(r, svc, "Cart", view))
	}
}

func staleMessage(n int) string {
	if n == 1 {
		return "1 item in your cart is no longer available and was removed."
	}
	return fmt.Sprintf("%d items in your cart are no longer available and were removed.", n)
}
