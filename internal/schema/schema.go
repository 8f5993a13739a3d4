// Package schema validates raw request payloads before they reach the store.
//
// Each entity kind declares its required fields and their primitive types.
// Validation reports every offending field in one pass rather than stopping
// at the first failure, so clients can fix all problems in a single round
// trip.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/gym/internal/domain"
)

// FieldError describes a single invalid or missing payload field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// FieldErrors aggregates all field-level failures for one payload.
type FieldErrors []FieldError

// Error makes FieldErrors usable as an error value.
func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for _, fe := range e {
		names = append(names, fe.Field)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

// Member holds the typed fields of a validated member payload.
type Member struct {
	Name string
	Age  int
}

// Session holds the typed fields of a validated workout-session payload.
// A member_id field in the raw payload is accepted but ignored; the member
// identity always comes from the request path.
type Session struct {
	Date            domain.Date
	DurationMinutes int
	CaloriesBurned  int
}

type memberPayload struct {
	Name *string `json:"name" validate:"required,min=1"`
	Age  *int    `json:"age" validate:"required"`
}

type sessionPayload struct {
	Date            *domain.Date `json:"date" validate:"required"`
	DurationMinutes *int         `json:"duration_minutes" validate:"required,gte=0"`
	CaloriesBurned  *int         `json:"calories_burned" validate:"required,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateMember checks a raw member payload and returns its typed fields.
func ValidateMember(raw []byte) (Member, FieldErrors) {
	fields, errs := decodeObject(raw)
	if errs != nil {
		return Member{}, errs
	}

	var payload memberPayload
	errs = append(errs, decodeField(fields, "name", &payload.Name, "must be a string")...)
	errs = append(errs, decodeField(fields, "age", &payload.Age, "must be an integer")...)
	errs = append(errs, checkRules(payload, errs)...)
	if len(errs) > 0 {
		return Member{}, errs
	}
	return Member{Name: *payload.Name, Age: *payload.Age}, nil
}

// ValidateSession checks a raw workout-session payload and returns its typed fields.
func ValidateSession(raw []byte) (Session, FieldErrors) {
	fields, errs := decodeObject(raw)
	if errs != nil {
		return Session{}, errs
	}

	var payload sessionPayload
	errs = append(errs, decodeField(fields, "date", &payload.Date, "must be a date in YYYY-MM-DD format")...)
	errs = append(errs, decodeField(fields, "duration_minutes", &payload.DurationMinutes, "must be an integer")...)
	errs = append(errs, decodeField(fields, "calories_burned", &payload.CaloriesBurned, "must be an integer")...)
	errs = append(errs, checkRules(payload, errs)...)
	if len(errs) > 0 {
		return Session{}, errs
	}
	return Session{
		Date:            *payload.Date,
		DurationMinutes: *payload.DurationMinutes,
		CaloriesBurned:  *payload.CaloriesBurned,
	}, nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, FieldErrors) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, FieldErrors{{Field: "body", Error: "must be a JSON object"}}
	}
	return fields, nil
}

// decodeField unmarshals one declared field in isolation so a type mismatch
// on one field never masks problems with the others.
func decodeField(fields map[string]json.RawMessage, name string, dst interface{}, typeMsg string) FieldErrors {
	raw, ok := fields[name]
	if !ok {
		return nil // absence is reported by the required rule
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return FieldErrors{{Field: name, Error: typeMsg}}
	}
	return nil
}

// checkRules runs the validate tags, skipping fields that already failed to
// decode so each field is reported at most once.
func checkRules(payload interface{}, already FieldErrors) FieldErrors {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(already))
	for _, fe := range already {
		seen[fe.Field] = struct{}{}
	}

	var out FieldErrors
	for _, ve := range err.(validator.ValidationErrors) {
		field := ve.Field()
		if _, dup := seen[field]; dup {
			continue
		}
		out = append(out, FieldError{Field: field, Error: ruleMessage(ve)})
	}
	return out
}

func ruleMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "min":
		if ve.Kind() == reflect.String {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "gte":
		if ve.Param() == "0" {
			return "must not be negative"
		}
		return fmt.Sprintf("must be at least %s", ve.Param())
	default:
		return "is invalid"
	}
}
