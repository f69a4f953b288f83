package analytics

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord is returned when a record breaks a schema post-condition.
var ErrInvalidRecord = errors.New("invalid analytics record")

type enumValue interface {
	Valid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("enum", validEnum); err != nil {
		panic(fmt.Sprintf("register enum validation: %v", err))
	}
	v.RegisterStructValidation(sentinelConsistency, Record{})
	return v
}

func validEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(enumValue)
	return ok && e.Valid()
}

// sentinelConsistency requires cross-category fields to carry the
// not_applicable sentinel when they do not apply to the request type.
func sentinelConsistency(sl validator.StructLevel) {
	r := sl.Current().Interface().(Record)
	if r.RequestType != RequestIncident && r.IncidentCategory != IncidentNotApplicable {
		sl.ReportError(r.IncidentCategory, "incident_category", "IncidentCategory", "not_applicable", string(r.RequestType))
	}
	if r.RequestType != RequestServiceRequest && r.ServiceRequestType != ServiceNotApplicable {
		sl.ReportError(r.ServiceRequestType, "service_request_type", "ServiceRequestType", "not_applicable", string(r.RequestType))
	}
}

// Validate checks r against the declared value sets, bounds and sentinel
// rules. It never modifies r.
func (r *Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "enum":
		return fmt.Sprintf("%s: %q is not an allowed value", fe.Field(), fmt.Sprint(fe.Value()))
	case "not_applicable":
		return fmt.Sprintf("%s: must be not_applicable when request_type is %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: exceeds maximum of %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s: below minimum of %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
}
