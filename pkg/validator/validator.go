package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
	Value string `json:"value"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// Kind discriminates the outcome of Check.
type Kind int

const (
	KindOK Kind = iota
	KindMissingFields
	KindInvalidEnum
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindMissingFields:
		return "missing_fields"
	case KindInvalidEnum:
		return "invalid_enum"
	default:
		return "invalid"
	}
}

// Result is the outcome of a request payload check.
//
// Missing lists json field names in declaration order when Kind is KindMissingFields.
// Field and Value identify the offending field when Kind is KindInvalidEnum or KindInvalid.
type Result struct {
	Kind    Kind
	Missing []string
	Field   string
	Value   string
}

// OK reports whether the payload passed every rule.
func (r Result) OK() bool { return r.Kind == KindOK }

// Valid returns a passing result.
func Valid() Result { return Result{Kind: KindOK} }

// MissingFields returns a result listing absent required fields.
func MissingFields(fields ...string) Result {
	return Result{Kind: KindMissingFields, Missing: fields}
}

// InvalidEnum returns a result for a value outside its allowed set.
func InvalidEnum(field, value string) Result {
	return Result{Kind: KindInvalidEnum, Field: field, Value: value}
}

// IsMissing reports whether field is among the missing fields.
func (r Result) IsMissing(field string) bool {
	for _, name := range r.Missing {
		if name == field {
			return true
		}
	}
	return false
}

// presence tags; any failure on these means the field was not supplied.
var presenceTags = map[string]struct{}{
	"required": {},
	"notblank": {},
	"min":      {},
}

// Check validates s and folds the failures into a Result. Presence failures
// always win over enum failures, regardless of field order.
func Check(s any) Result {
	err := ValidateStruct(s)
	if err == nil {
		return Valid()
	}

	var failures ValidationErrors
	if !errors.As(err, &failures) {
		return Result{Kind: KindInvalid, Value: err.Error()}
	}

	var missing []string
	for _, failure := range failures {
		if _, ok := presenceTags[failure.Tag]; ok {
			missing = append(missing, failure.Field)
		}
	}
	if len(missing) > 0 {
		return MissingFields(missing...)
	}

	for _, failure := range failures {
		if failure.Tag == "oneof" {
			return InvalidEnum(failure.Field, failure.Value)
		}
	}

	first := failures[0]
	return Result{Kind: KindInvalid, Field: first.Field, Value: first.Value}
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
				Value: fmt.Sprint(fe.Value()),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			comma := strings.Index(name, ",")
			if comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
