package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/api/validators"
	"github.com/angelmondragon/fruitshop-backend/api/views"
	product "github.com/angelmondragon/fruitshop-backend/internal/products"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

const settingsPath = "/settings/"

// SettingsData feeds the settings page.
type SettingsData struct {
	Products []product.ProductDTO
}

type productForm struct {
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description"`
	Price       string `form:"price" validate:"required"`
	RemoveImage bool   `form:"remove_image"`
}

// SettingsIndex lists every product with the create form.
func SettingsIndex(svc product.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.Render(r.Context(), logg, w, http.StatusOK, views.PageSettings, newPage(r, carts, "Settings", SettingsData{Products: items}))
	}
}

// SettingsCreate adds a product from the multipart settings form.
func SettingsCreate(svc product.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input, closeImage, err := readProductForm(w, r, maxUpload)
		if err == nil {
			defer closeImage()
			var created *product.ProductDTO
			if created, err = svc.Create(ctx, input); err == nil {
				if logg != nil {
					logg.Info(logg.WithField(ctx, "product_id", created.ID), "product.created")
				}
				flash(ctx, logg, session.LevelSuccess, "Product \""+created.Name+"\" created.")
				responses.Redirect(w, r, settingsPath)
				return
			}
		}
		if msg, ok := flashable(err); ok {
			flash(ctx, logg, session.LevelError, msg)
			responses.Redirect(w, r, settingsPath)
			return
		}
		responses.WriteError(ctx, logg, w, err)
	}
}

// SettingsUpdateForm renders the edit form for one product.
func SettingsUpdateForm(svc product.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return productPage(svc, carts, views.PageUpdate, "Edit product", logg)
}

// SettingsUpdate saves the edit form. Validation problems go back to the
// same form as a flash.
func SettingsUpdate(svc product.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		formPath := settingsPath + "update/" + strconv.FormatUint(uint64(id), 10) + "/"

		input, closeImage, err := readProductForm(w, r, maxUpload)
		if err == nil {
			defer closeImage()
			var updated *product.ProductDTO
			if updated, err = svc.Update(ctx, id, input); err == nil {
				if logg != nil {
					logg.Info(logg.WithField(ctx, "product_id", updated.ID), "product.updated")
				}
				flash(ctx, logg, session.LevelSuccess, "Product \""+updated.Name+"\" updated.")
				responses.Redirect(w, r, settingsPath)
				return
			}
		}
		if msg, ok := flashable(err); ok {
			flash(ctx, logg, session.LevelError, msg)
			responses.Redirect(w, r, formPath)
			return
		}
		responses.WriteError(ctx, logg, w, err)
	}
}

// SettingsDeleteConfirm asks before deleting a product.
func SettingsDeleteConfirm(svc product.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return productPage(svc, carts, views.PageDelete, "Delete product", logg)
}

// SettingsDelete removes a product.
func SettingsDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "product_id", id), "product.deleted")
		}
		flash(ctx, logg, session.LevelSuccess, "Product deleted.")
		responses.Redirect(w, r, settingsPath)
	}
}

func productPage(svc product.Service, carts cartLoader, name, title string, logg *logger.Logger) http.HandlerFunc {
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
		responses.Render(r.Context(), logg, w, http.StatusOK, name, newPage(r, carts, title, item))
	}
}

// readProductForm decodes the product fields and the optional image. The
// returned func closes the uploaded file.
func readProductForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (product.ProductInput, func(), error) {
	noop := func() {}
	if maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	}

	var form productForm
	if err := validators.DecodeForm(r, &form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return product.ProductInput{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Image is too large.")
		}
		return product.ProductInput{}, noop, err
	}
	price, err := validators.ParseDecimal(form.Price, "price")
	if err != nil {
		return product.ProductInput{}, noop, err
	}

	input := product.ProductInput{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		RemoveImage: form.RemoveImage,
	}

	file, err := formFile(r, "image")
	if err != nil {
		return product.ProductInput{}, noop, err
	}
	if file == nil {
		return input, noop, nil
	}
	input.Image = file
	return input, func() { _ = file.Close() }, nil
}

func formFile(r *http.Request, field string) (multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Image could not be read.")
	}
	if header.Size == 0 {
		_ = file.Close()
		return nil, nil
	}
	return file, nil
}
