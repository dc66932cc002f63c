package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"agrireport-backend-go/internal/config"

	"github.com/go-playground/validator/v10"
)

var (
	phMobilePattern = regexp.MustCompile(`^(09|\+639)\d{9}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
)

var ReportTypes = []string{"pest", "flood", "drought", "mix"}

var ReportStatuses = []string{"pending", "verified", "resolved", "rejected"}

// Validator checks request payloads and reports every failing field at once.
type Validator struct {
	v      *validator.Validate
	region config.Region
}

func NewValidator(region config.Region) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("ph_mobile", func(fl validator.FieldLevel) bool {
		return phMobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("region_lat", func(fl validator.FieldLevel) bool {
		return region.ContainsLat(fl.Field().Float())
	})
	_ = v.RegisterValidation("region_lon", func(fl validator.FieldLevel) bool {
		return region.ContainsLon(fl.Field().Float())
	})
	_ = v.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
		return contains(ReportTypes, fl.Field().String())
	})
	_ = v.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
		return contains(ReportStatuses, fl.Field().String())
	})
	_ = v.RegisterValidation("ymd_date", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v, region: region}
}

// Validate returns nil or a ValidationError listing every violated field.
func (val *Validator) Validate(payload interface{}) error {
	err := val.v.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = val.message(fe)
	}
	return ErrValidation(fields)
}

// Merge folds extra field errors into err, which may be nil or a
// ValidationError from Validate.
func Merge(err error, extra map[string]string) error {
	if len(extra) == 0 {
		return err
	}
	fields := map[string]string{}
	if err != nil {
		serr, ok := AsServiceError(err)
		if !ok || serr.Code != CodeValidation {
			return err
		}
		for k, v := range serr.Fields {
			fields[k] = v
		}
	}
	for k, v := range extra {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	return ErrValidation(fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func (val *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "email":
		return "must be a valid email address"
	case "ph_mobile":
		return "must be a mobile number like 09XXXXXXXXX or +639XXXXXXXXX"
	case "username":
		return "may only contain letters, digits, dots and underscores"
	case "region_lat":
		return "latitude is outside the service area"
	case "region_lon":
		return "longitude is outside the service area"
	case "report_type":
		return "must be one of " + strings.Join(ReportTypes, ", ")
	case "report_status":
		return "must be one of " + strings.Join(ReportStatuses, ", ")
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "ymd_date":
		return "must be a date in YYYY-MM-DD format"
	case "eqfield":
		return "does not match"
	}
	return "is invalid"
}

func contains(values []string, value string) bool {
	for _, item := range values {
		if item == value {
			return true
		}
	}
	return false
}
