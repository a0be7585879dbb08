package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is the catalog view of a product needed to price a line.
type Product struct {
	ID       uint
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// Catalog resolves product ids. Ids missing from the returned map are
// treated as stale.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]Product, error)
}

// LineItem is a priced cart entry.
type LineItem struct {
	Product  Product
	Quantity int
	Subtotal decimal.Decimal
}

// Line is the result of resolving one cart entry: either a priced item or a
// stale reference to a product that no longer exists.
type Line struct {
	ProductID uint
	Quantity  int
	Item      *LineItem
	Stale     bool
}

// View is a materialized cart. Total only covers resolved lines.
type View struct {
	Lines []Line
	Total decimal.Decimal
}

// Items returns the resolved line items in cart order.
func (v View) Items() []LineItem {
	out := make([]LineItem, 0, len(v.Lines))
	for _, line := range v.Lines {
		if line.Item != nil {
			out = append(out, *line.Item)
		}
	}
	return out
}

// StaleIDs returns the ids that could not be resolved.
func (v View) StaleIDs() []uint {
	var out []uint
	for _, line := range v.Lines {
		if line.Stale {
			out = append(out, line.ProductID)
		}
	}
	return out
}

// IsEmpty reports whether there is nothing to show.
func (v View) IsEmpty() bool {
	return len(v.Items()) == 0
}

// Materialize prices every entry of c in cart order using one catalog lookup.
func Materialize(ctx context.Context, c Cart, catalog Catalog) (View, error) {
	view := View{Total: decimal.Zero}
	if c.Len() == 0 {
		return view, nil
	}
	if catalog == nil {
		return view, fmt.Errorf("catalog is required")
	}

	found, err := catalog.FindByIDs(ctx, c.IDs())
	if err != nil {
		return View{}, err
	}

	view.Lines = make([]Line, 0, c.Len())
	for _, entry := range c.Entries() {
		product, ok := found[entry.ProductID]
		if !ok {
			view.Lines = append(view.Lines, Line{ProductID: entry.ProductID, Quantity: entry.Quantity, Stale: true})
			continue
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		view.Total = view.Total.Add(subtotal)
		view.Lines = append(view.Lines, Line{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			Item:      &LineItem{Product: product, Quantity: entry.Quantity, Subtotal: subtotal},
		})
	}
	return view, nil
}
