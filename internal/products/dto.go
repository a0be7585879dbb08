package product

import (
	"io"
	"time"

	"github.com/angelmondragon/fruitshop-backend/pkg/db/models"
	"github.com/angelmondragon/fruitshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductDTO is the product shape handed to views.
type ProductDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageKey    string          `json:"-"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasImage reports whether the product carries an image.
func (p ProductDTO) HasImage() bool { return p.ImageURL != "" }

// ListResult is one page of a catalog listing.
type ListResult struct {
	Products []ProductDTO
	Page     pagination.Page
	Query    string
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       io.Reader
	RemoveImage bool
}

func toDTO(p models.Product, urlFor func(string) string) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != nil && *p.Image != "" {
		dto.ImageKey = *p.Image
		if urlFor != nil {
			dto.ImageURL = urlFor(*p.Image)
		}
	}
	return dto
}
