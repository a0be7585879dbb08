package controllers

import (
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/api/validators"
	"github.com/angelmondragon/fruitshop-backend/api/views"
	product "github.com/angelmondragon/fruitshop-backend/internal/products"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/pagination"
)

const maxQueryLen = 100

// ProductList renders the catalog, optionally filtered by ?q= and paged by
// ?page=. It serves both / and /search/.
func ProductList(svc product.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := validators.QueryString(r, "q", maxQueryLen)
		page := pagination.ParsePageParam(r.URL.Query().Get("page"))

		result, err := svc.List(r.Context(), query, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		title := "Products"
		if query != "" {
			title = "Search: " + query
		}
		responses.Render(r.Context(), logg, w, http.StatusOK, views.PageProductList, newPage(r, carts, title, result))
	}
}

// ProductDetail renders one product or the not-found page.
func ProductDetail(svc product.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.Render(r.Context(), logg, w, http.StatusOK, views.PageProductDetail, newPage(r, carts, item.Name, item))
	}
}
