// Package views renders the storefront HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"sync"

	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageProductList   = "product_list.html"
	PageProductDetail = "product_detail.html"
	PageCart          = "cart.html"
	PageLogin         = "login.html"
	PageSignup        = "signup.html"
	PageSettings      = "settings.html"
	PageUpdate        = "update.html"
	PageDelete        = "delete.html"
	PageError         = "error.html"
)

var pages = []string{
	PageProductList,
	PageProductDetail,
	PageCart,
	PageLogin,
	PageSignup,
	PageSettings,
	PageUpdate,
	PageDelete,
	PageError,
}

// Page is the data every template receives. Data holds the page-specific
// view model.
type Page struct {
	Title     string
	User      *users.UserDTO
	Flashes   []session.Flash
	CartCount int
	Data      any
}

// ErrorData backs the error page.
type ErrorData struct {
	Status  int
	Message string
}

// Renderer executes parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
	defaultErr      error
)

// Default returns the renderer built from the embedded templates.
func Default() (*Renderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = New()
	})
	return defaultRenderer, defaultErr
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page name to w. Output is buffered so a failing template
// never produces a half-written page.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"pageURL": func(query string, page int) string {
		v := url.Values{}
		if query != "" {
			v.Set("q", query)
		}
		v.Set("page", strconv.Itoa(page))
		return "?" + v.Encode()
	},
}
