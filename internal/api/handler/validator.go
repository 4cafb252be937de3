package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/primar/console/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator with the console's custom tags
// registered, ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("cnpj", stringRule(domain.ValidCNPJ))
	_ = v.RegisterValidation("cep", stringRule(domain.ValidCEP))
	_ = v.RegisterValidation("phone_br", stringRule(domain.ValidPhoneBR))
	_ = v.RegisterValidation("task_status", stringRule(func(s string) bool { return domain.TaskStatus(s).Valid() }))
	_ = v.RegisterValidation("task_priority", stringRule(func(s string) bool { return domain.Priority(s).Valid() }))
	_ = v.RegisterValidation("recurrence_type", stringRule(func(s string) bool { return domain.RecurrenceType(s).Valid() }))
	_ = v.RegisterValidation("payment_status", stringRule(func(s string) bool { return domain.PaymentStatus(s).Valid() }))
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. It reports the first
// failing field as a domain.ValidationError and lists every failure in the message.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return &domain.ValidationError{Field: ve[0].Field(), Message: strings.Join(msgs, "; ")}
		}
		return err
	}
	return nil
}

// stringRule adapts a string predicate to a validator.Func. Empty values pass;
// presence is the job of the required tag. Pointers are dereferenced by the validator.
func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || ok(s)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "cnpj":
		return field + " must be a valid CNPJ"
	case "cep":
		return field + " must have 8 digits"
	case "phone_br":
		return field + " must have 10 or 11 digits"
	case "task_status":
		return field + " must be one of: todo in_progress completed cancelled"
	case "task_priority":
		return field + " must be one of: low medium high urgent"
	case "recurrence_type":
		return field + " must be one of: daily weekly monthly yearly"
	case "payment_status":
		return field + " must be one of: em_dia atrasado"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
