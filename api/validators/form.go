package validators

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// multipartMemory bounds how much of a multipart body is held in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		tag := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return fieldLabel(tag)
	})
	return v
}

// DecodeForm parses an urlencoded or multipart body into dest and validates
// it. dest must be a pointer to a struct whose string or bool fields carry
// `form` tags.
func DecodeForm(r *http.Request, dest any) error {
	if err := parseForm(r); err != nil {
		return err
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return pkgerrors.New(pkgerrors.CodeInternal, "form destination must be a struct pointer")
	}
	elem := rv.Elem()
	typ := elem.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		raw := r.PostForm.Get(name)
		target := elem.Field(i)
		switch target.Kind() {
		case reflect.String:
			if field.Tag.Get("trim") == "false" {
				target.SetString(raw)
			} else {
				target.SetString(strings.TrimSpace(raw))
			}
		case reflect.Bool:
			target.SetBool(isChecked(raw))
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported form field kind %s", target.Kind()))
		}
	}

	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func parseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form submission")
	}
	return nil
}

func isChecked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// formatValidationErrors surfaces the first failing field as the message and
// keeps every field in the details.
func formatValidationErrors(err error) *pkgerrors.Error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, validationMessage(errs[0])).WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", fe.Field())
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}

// fieldLabel turns a form key like "remove_image" into "Remove image".
func fieldLabel(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
