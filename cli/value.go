package cli

import (
	"time"

	"github.com/gclaussn/go-planning/planning"
)

// dateValue is a custom flag value for a calendar date, formatted as "YYYY-MM-DD".
type dateValue planning.Date

func (v *dateValue) Set(s string) error {
	d, err := planning.NewDate(s)
	if err != nil {
		return err
	}

	*v = dateValue(d)
	return nil
}

func (v dateValue) String() string {
	if planning.Date(v).IsZero() {
		return ""
	}
	return planning.Date(v).String()
}

func (v dateValue) Time() time.Time {
	return planning.Date(v).Time()
}

func (v dateValue) Type() string {
	return "date"
}
