package applicant

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/db"
)

const (
	MsgMissingFields       = "Missing required fields"
	MsgInvalidPositionType = "Invalid position type"
	MsgInvalidEmail        = "Invalid email address"
)

// MaxTextLength caps experience, motivation and availability.
const MaxTextLength = 1000

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Input is a submitted application as received from a client.
type Input struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,max=191,simple_email"`
	Phone        string `json:"phone" validate:"max=50"`
	PositionType string `json:"position_type" validate:"required,oneof=intern volunteer"`
	Department   string `json:"department" validate:"required,max=100"`
	Experience   string `json:"experience" validate:"max=1000"`
	Motivation   string `json:"motivation" validate:"max=1000"`
	Availability string `json:"availability" validate:"max=1000"`
}

func (in Input) trimmed() Input {
	return Input{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PositionType: strings.TrimSpace(in.PositionType),
		Department:   strings.TrimSpace(in.Department),
		Experience:   strings.TrimSpace(in.Experience),
		Motivation:   strings.TrimSpace(in.Motivation),
		Availability: strings.TrimSpace(in.Availability),
	}
}

// record converts a validated input into a new row. Empty optional fields
// become NULL.
func (in Input) record() db.Applicant {
	return db.Applicant{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        optional(in.Phone),
		PositionType: db.PositionType(in.PositionType),
		Department:   in.Department,
		Experience:   optional(in.Experience),
		Motivation:   optional(in.Motivation),
		Availability: optional(in.Availability),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// The stock "email" rule is RFC 5322; applications use the same looser
	// check as the registration form.
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError turns validator output into a single ValidationError.
// Missing fields take precedence over an invalid position type, which takes
// precedence over a malformed email and over-long text.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.NewError(common.CodeInternal, "Internal server error", err)
	}

	fields := make(map[string]string, len(verrs))
	var missing, position, email bool
	var tooLong string
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			missing = true
			fields[field] = "is required"
		case "oneof":
			position = true
			fields[field] = "must be one of: " + fe.Param()
		case "simple_email":
			email = true
			fields[field] = "must be a valid email address"
		case "max":
			if tooLong == "" {
				tooLong = field
			}
			fields[field] = fmt.Sprintf("must be at most %s characters", fe.Param())
		default:
			fields[field] = "is invalid"
		}
	}

	switch {
	case missing:
		return common.NewValidationError(MsgMissingFields, fields)
	case position:
		return common.NewValidationError(MsgInvalidPositionType, fields)
	case email:
		return common.NewValidationError(MsgInvalidEmail, fields)
	case tooLong != "":
		return common.NewValidationError(fmt.Sprintf("%s %s", tooLong, fields[tooLong]), fields)
	default:
		return common.NewValidationError("Invalid application", fields)
	}
}
