package weather

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var locationPattern = regexp.MustCompile(`^[A-Za-z \-',.]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Letters, spaces and , . ' - only.
	if err := v.RegisterValidation("location", func(fl validator.FieldLevel) bool {
		return locationPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a submission against the date and location rules.
// Dates are compared in UTC: today is accepted, any later day is rejected.
func Validate(q WeatherQuery, now time.Time) (ValidQuery, error) {
	date, err := validateDate(q.Date, now)
	if err != nil {
		return ValidQuery{}, err
	}

	loc := strings.TrimSpace(q.Location)
	if err := validate.Var(loc, "required,location"); err != nil {
		return ValidQuery{}, &ValidationError{
			Field:  "location",
			Reason: "location must contain only letters, spaces and , . ' -",
			kind:   ErrInvalidLocation,
		}
	}

	return ValidQuery{
		Date:     date,
		Location: loc,
		Notes:    q.Notes,
	}, nil
}

func validateDate(s string, now time.Time) (time.Time, error) {
	if err := validate.Var(s, "required,datetime="+DateLayout); err != nil {
		return time.Time{}, &ValidationError{
			Field:  "date",
			Reason: "date must be a calendar date in YYYY-MM-DD format",
			kind:   ErrInvalidDate,
		}
	}

	date, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: err.Error(), kind: ErrInvalidDate}
	}

	if date.After(today(now)) {
		return time.Time{}, &ValidationError{
			Field:  "date",
			Reason: "date cannot be in the future",
			kind:   ErrInvalidDate,
		}
	}
	return date, nil
}

// today returns midnight UTC of now's calendar day.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
