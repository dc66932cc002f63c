package services

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	CodeValidation         = "validation_error"
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeInvalidCredentials = "invalid_credentials"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodePayloadTooLarge    = "payload_too_large"
)

// ServiceError is an error that is safe to show to the client.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e ServiceError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func ErrValidation(fields map[string]string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeValidation, Message: "Validation failed", Fields: fields}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

// ErrInvalidCredentials is returned for every failed login so callers cannot
// tell an unknown identifier from a wrong password.
func ErrInvalidCredentials() error {
	return ServiceError{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid credentials"}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func ErrConflict(field string) error {
	return ServiceError{
		Status:  http.StatusConflict,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s already exists", field),
		Fields:  map[string]string{field: "already registered"},
	}
}

func ErrPayloadTooLarge(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodePayloadTooLarge, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// AsServiceError unwraps err into a ServiceError when it carries one.
func AsServiceError(err error) (ServiceError, bool) {
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr, true
	}
	return ServiceError{}, false
}

var uniqueFields = map[string]string{
	"users_username_key":       "username",
	"users_email_key":          "email",
	"users_username_lower_key": "username",
	"users_email_lower_key":    "email",
	"farmers_rsbsa_id_key":     "rsbsa_id",
	"farmers_user_id_key":      "user_id",
	"barangays_name_key":       "name",
	"pest_categories_name_key": "name",
	"crop_types_name_key":      "name",
}

// conflictFromDB maps a unique-violation from the datastore to a Conflict
// naming the offending field. Other errors are returned unchanged.
func conflictFromDB(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if field, ok := uniqueFields[pgErr.ConstraintName]; ok {
		return ErrConflict(field)
	}
	for _, field := range []string{"rsbsa_id", "username", "email"} {
		if strings.Contains(pgErr.ConstraintName, field) || strings.Contains(pgErr.Detail, "("+field+")") {
			return ErrConflict(field)
		}
	}
	return ErrConflict("record")
}
