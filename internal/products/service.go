package product

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	"github.com/angelmondragon/fruitshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/pagination"
	"github.com/angelmondragon/fruitshop-backend/pkg/storage"
	"github.com/shopspring/decimal"
)

const maxNameLength = 200

var maxPrice = decimal.RequireFromString("99999999.99")

type productRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	Count(ctx context.Context, query string) (int64, error)
	List(ctx context.Context, query string, offset, limit int) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, query string, page int) (*ListResult, error)
	ListAll(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint) error
	FindByIDs(ctx context.Context, ids []uint) (map[uint]cart.Product, error)
}

type service struct {
	repo     productRepository
	images   storage.ObjectStore
	pageSize int
	logg     *logger.Logger
}

// NewService builds the catalog service. images may be nil, in which case
// uploads are rejected.
func NewService(repo productRepository, images storage.ObjectStore, pageSize int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &service{repo: repo, images: images, pageSize: pageSize, logg: logg}, nil
}

func (s *service) List(ctx context.Context, query string, page int) (*ListResult, error) {
	query = strings.TrimSpace(query)
	total, err := s.repo.Count(ctx, query)
	if err != nil {
		return nil, err
	}
	p := pagination.Paginate(total, page, s.pageSize)
	rows, err := s.repo.List(ctx, query, p.Offset, p.Size)
	if err != nil {
		return nil, err
	}
	return &ListResult{Products: s.toDTOs(rows), Page: p, Query: query}, nil
}

func (s *service) ListAll(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*row, s.imageURL)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	name, description, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	row := &models.Product{Name: name, Description: description, Price: input.Price}
	if input.Image != nil {
		key, err := s.storeImage(ctx, input)
		if err != nil {
			return nil, err
		}
		row.Image = &key
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if row.Image != nil {
			s.deleteImage(ctx, *row.Image)
		}
		return nil, err
	}
	dto := toDTO(*row, s.imageURL)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input ProductInput) (*ProductDTO, error) {
	name, description, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var previous string
	if row.Image != nil {
		previous = *row.Image
	}

	row.Name = name
	row.Description = description
	row.Price = input.Price

	var uploaded string
	switch {
	case input.Image != nil:
		uploaded, err = s.storeImage(ctx, input)
		if err != nil {
			return nil, err
		}
		row.Image = &uploaded
	case input.RemoveImage:
		row.Image = nil
	}

	if err := s.repo.Update(ctx, row); err != nil {
		if uploaded != "" {
			s.deleteImage(ctx, uploaded)
		}
		return nil, err
	}
	if previous != "" && (row.Image == nil || *row.Image != previous) {
		s.deleteImage(ctx, previous)
	}
	dto := toDTO(*row, s.imageURL)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if row.Image != nil {
		s.deleteImage(ctx, *row.Image)
	}
	return nil
}

// FindByIDs resolves cart entries to priced products.
func (s *service) FindByIDs(ctx context.Context, ids []uint) (map[uint]cart.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]cart.Product, len(rows))
	for _, row := range rows {
		dto := toDTO(row, s.imageURL)
		out[row.ID] = cart.Product{ID: row.ID, Name: row.Name, Price: row.Price, ImageURL: dto.ImageURL}
	}
	return out, nil
}

func (s *service) storeImage(ctx context.Context, input ProductInput) (string, error) {
	if s.images == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image uploads are not enabled")
	}
	contentType, ext, body, err := storage.DetectImage(input.Image)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image could not be read")
	}
	key := storage.ObjectKey(ext)
	if err := s.images.Put(ctx, key, contentType, body); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store image")
	}
	return key, nil
}

func (s *service) deleteImage(ctx context.Context, key string) {
	if s.images == nil || key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "image_key", key), "product image cleanup failed")
	}
}

func (s *service) imageURL(key string) string {
	if s.images == nil {
		return ""
	}
	return s.images.URL(key)
}

func (s *service) toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, s.imageURL))
	}
	return out
}

func validateInput(input ProductInput) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "Name is required.")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Name must be at most %d characters.", maxNameLength))
	}
	if input.Price.IsNegative() {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "Price must be zero or more.")
	}
	if !input.Price.Equal(input.Price.Round(2)) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "Price can have at most two decimal places.")
	}
	if input.Price.GreaterThan(maxPrice) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "Price is too large.")
	}
	return name, strings.TrimSpace(input.Description), nil
}

var _ cart.Catalog = (Service)(nil)
