package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"dextrack/internal/apperr"
	"dextrack/internal/tracker"
)

var (
	pokedexRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	keyRe     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)
)

// FormTypes are the accepted values for the formtype tag.
var FormTypes = []string{"normal", "shiny", "alpha", "alphaShiny"}

// DefaultMaxBodyBytes caps request bodies when MaxBodyBytes is unset.
const DefaultMaxBodyBytes int64 = 1 << 20

// Validator decodes request payloads and checks them against struct tags.
// A closed validator (the default) rejects unknown JSON fields; with
// StripUnknown set they are silently dropped.
type Validator struct {
	StripUnknown bool
	MaxBodyBytes int64

	v *validator.Validate
}

func New(stripUnknown bool) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("pokedex", func(fl validator.FieldLevel) bool {
		return pokedexRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("key", func(fl validator.FieldLevel) bool {
		return keyRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pokemonid", func(fl validator.FieldLevel) bool {
		return tracker.ValidPokemonID(int(fl.Field().Int()))
	})
	_ = v.RegisterValidation("formtype", func(fl validator.FieldLevel) bool {
		return IsFormType(fl.Field().String())
	})

	return &Validator{StripUnknown: stripUnknown, v: v}
}

func IsFormType(s string) bool {
	for _, ft := range FormTypes {
		if ft == s {
			return true
		}
	}
	return false
}

// DecodeJSON decodes the request body into dst and then validates it.
func (x *Validator) DecodeJSON(r *http.Request, dst any) error {
	limit := x.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request validation failed", apperr.FieldError{
				Field:   "body",
				Message: fmt.Sprintf("body must be at most %d bytes", limit),
			})
		}
		return apperr.Validation("unreadable body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return apperr.Validation("request body is required")
	}

	if x.StripUnknown {
		err = render.DecodeJSON(bytes.NewReader(raw), dst)
	} else {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(dst)
	}
	if err != nil {
		return decodeError(err)
	}

	return x.Struct(dst)
}

// Struct validates v and reports every violated field together.
func (x *Validator) Struct(v any) error {
	err := x.v.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return apperr.Validation("request validation failed", fields...)
}

// fieldPath drops the root struct name: "putReq.formType" -> "formType".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "pokedex":
		return fmt.Sprintf("%s must be lowercase letters, digits, '-' or '_' (max 64)", field)
	case "key":
		return fmt.Sprintf("%s must be 1-128 characters of letters, digits, '.', '_', ':' or '-'", field)
	case "pokemonid":
		return fmt.Sprintf("%s must be between 1 and %d", field, tracker.MaxPokemonID)
	case "formtype":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(FormTypes, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperr.Validation("request validation failed", apperr.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be of type %s", field, typeErr.Type.String()),
		})
	case errors.As(err, &syntaxErr):
		return apperr.Validation("malformed JSON body")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperr.Validation("request validation failed", apperr.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s is not an allowed field", field),
		})
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validation("malformed JSON body")
	default:
		return apperr.Validation("invalid JSON body")
	}
}

// Join merges validation failures so every violated field is reported in
// one response. Any non-validation error is returned as is.
func Join(errs ...error) error {
	var fields []apperr.FieldError
	var first *apperr.Error

	for _, err := range errs {
		if err == nil {
			continue
		}
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Code != apperr.CodeValidation {
			return err
		}
		if first == nil {
			first = ae
		}
		fields = append(fields, ae.Fields...)
	}

	if first == nil {
		return nil
	}
	msg := first.Message
	if len(fields) > 0 {
		msg = "request validation failed"
	}
	return apperr.Validation(msg, fields...)
}
