package esg

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// periodPattern accepts a 4-digit year, optionally followed by a quarter
// suffix: "2024" or "2024-Q3".
var periodPattern = regexp.MustCompile(`^\d{4}(-Q[1-4])?$`)

// MetricInput carries the fields for a full create. ID is present only so a
// caller that supplies one gets a field error instead of a silent drop.
// The datetime layout accepts fractional seconds even though it omits them,
// so "2024-01-01T00:00:00.000Z" from JavaScript clients passes unchanged.
type MetricInput struct {
	ID           string   `json:"id" validate:"isdefault"`
	Category     string   `json:"category" validate:"required,oneof=environmental social governance"`
	Name         string   `json:"metric" validate:"required"`
	Value        *float64 `json:"value" validate:"required,gte=0"`
	Unit         string   `json:"unit" validate:"required"`
	Period       string   `json:"period" validate:"required,esgperiod"`
	Source       string   `json:"source" validate:"required"`
	ReportedBy   string   `json:"reportedBy" validate:"required"`
	DateReported string   `json:"dateReported" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Verified     bool     `json:"verified"`
	Notes        string   `json:"notes"`
}

// MetricPatch carries a partial update. Nil fields are left untouched;
// supplied fields must individually satisfy the same constraints as a create.
type MetricPatch struct {
	Category     *string  `json:"category" validate:"omitnil,oneof=environmental social governance"`
	Name         *string  `json:"metric" validate:"omitnil,min=1"`
	Value        *float64 `json:"value" validate:"omitnil,gte=0"`
	Unit         *string  `json:"unit" validate:"omitnil,min=1"`
	Period       *string  `json:"period" validate:"omitnil,esgperiod"`
	Source       *string  `json:"source" validate:"omitnil,min=1"`
	ReportedBy   *string  `json:"reportedBy" validate:"omitnil,min=1"`
	DateReported *string  `json:"dateReported" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	Verified     *bool    `json:"verified"`
	Notes        *string  `json:"notes"`
}

// Apply merges the supplied fields of the patch over m. Unspecified fields
// and the ID are untouched.
func (p MetricPatch) Apply(m *Metric) {
	if p.Category != nil {
		m.Category = Category(*p.Category)
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Value != nil {
		m.Value = *p.Value
	}
	if p.Unit != nil {
		m.Unit = *p.Unit
	}
	if p.Period != nil {
		m.Period = *p.Period
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.ReportedBy != nil {
		m.ReportedBy = *p.ReportedBy
	}
	if p.DateReported != nil {
		m.DateReported = *p.DateReported
	}
	if p.Verified != nil {
		m.Verified = *p.Verified
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
}

// FieldError reports one violated constraint on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names rather than Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("esgperiod", func(fl validator.FieldLevel) bool {
		return periodPattern.MatchString(fl.Field().String())
	})

	return v
}

// ValidateInput checks a full creation payload against the metric schema.
// It returns one FieldError per violated field, or nil when the payload is
// valid. Pure function, no side effects.
func ValidateInput(in MetricInput) []FieldError {
	return translate(validate.Struct(in))
}

// ValidatePatch checks a partial update payload. Absent (nil) fields pass
// through untouched; each supplied field must itself be valid.
func ValidatePatch(p MetricPatch) []FieldError {
	return translate(validate.Struct(p))
}

func translate(err error) []FieldError {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isdefault":
		return "must not be supplied"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "min":
		return "must not be empty"
	case "esgperiod":
		return "must be YYYY or YYYY-QN format"
	case "datetime":
		return "must be an ISO-8601 date-time"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
