package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ordercore/internal/core/apperror"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
)

// MaxTransactionKeyLength bounds idempotency keys.
const MaxTransactionKeyLength = 128

var (
	registerOnce sync.Once
	registerErr  error
)

type rule struct {
	tag string
	fn  validator.Func
}

var documentRules = []rule{
	{"document_kind", func(fl validator.FieldLevel) bool {
		return commercial.Kind(fl.Field().String()).IsValid()
	}},
	{"document_status", func(fl validator.FieldLevel) bool {
		return lifecycle.Status(fl.Field().String()).IsValid()
	}},
	{"payment_mode", func(fl validator.FieldLevel) bool {
		_, err := ledger.ParseMode(fl.Field().String())
		return err == nil
	}},
	{"transaction_key", func(fl validator.FieldLevel) bool {
		return ValidTransactionKey(fl.Field().String())
	}},
}

// RegisterValidators adds the document rules to gin's validator engine.
// Only the first call registers; later calls return the same result.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		registerErr = registerRules(v, documentRules)
	})
	return registerErr
}

func registerRules(v *validator.Validate, rules []rule) error {
	var errs []error
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", r.tag, err))
		}
	}
	return errors.Join(errs...)
}

// ValidTransactionKey reports whether s is a usable idempotency key:
// non-empty, bounded and free of whitespace and control characters.
func ValidTransactionKey(s string) bool {
	if s == "" || len(s) > MaxTransactionKeyLength {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// BindError converts a binding failure into a validation AppError.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewValidationKind(apperror.KindInvalidFormat, "body", "invalid request body").
			WithDetail("error", err.Error())
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	kind := apperror.KindOutOfRange
	switch fe.Tag() {
	case "required":
		kind = apperror.KindRequired
	case "document_kind", "document_status", "payment_mode", "oneof":
		kind = apperror.KindInvalidEnum
	case "transaction_key", "uuid":
		kind = apperror.KindInvalidFormat
	}

	return apperror.NewValidationKind(kind, field,
		fmt.Sprintf("%s failed on %s", field, fe.Tag()))
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
