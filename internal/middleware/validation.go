package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/model"
)

// Input limits.
const (
	MaxSearchQueryLen = 200
	MinUsernameLen    = 3
	MaxUsernameLen    = 30
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_.-]+$`)

// ErrorResponse writes a failed envelope with the given status.
func ErrorResponse(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(model.NewEnvelope(status, nil, message))
}

// ValidateObjectID parses a path or query identifier. name is used in the
// error message.
func ValidateObjectID(raw, name string) (bson.ObjectID, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return bson.ObjectID{}, name + " is required"
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.ObjectID{}, "Invalid " + name
	}
	return id, ""
}

// ValidateSearchQuery trims a free-text query. An empty query is valid.
func ValidateSearchQuery(q string) (string, string) {
	q = strings.TrimSpace(q)
	if len(q) > MaxSearchQueryLen {
		return "", fmt.Sprintf("query must be at most %d characters", MaxSearchQueryLen)
	}
	return q, ""
}

// ValidateUsername lowercases and checks a channel username.
func ValidateUsername(name string) (string, string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", "username is required"
	}
	if len(name) < MinUsernameLen || len(name) > MaxUsernameLen {
		return "", fmt.Sprintf("username must be %d-%d characters", MinUsernameLen, MaxUsernameLen)
	}
	if !usernameRe.MatchString(name) {
		return "", "username contains invalid characters"
	}
	return name, ""
}

// StructValidator checks request bodies against their validate tags and
// reports the first failure as a validation error.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &StructValidator{v: v}
}

// Validate satisfies fiber.StructValidator.
func (s *StructValidator) Validate(out any) error {
	err := s.v.Struct(out)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation("Invalid request body")
	}
	return apperr.Validation("%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}
