package assessment

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrTargetNotBelowCurrent = errors.New("target weight must be less than current weight")
)

// Status is the coarse rating every assessment result is mapped to.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
)

// Score returns the points used by the overall body score.
func (s Status) Score() int {
	switch s {
	case StatusExcellent:
		return 4
	case StatusGood:
		return 3
	case StatusFair:
		return 2
	default:
		return 1
	}
}

func (s Status) NeedsAttention() bool {
	return s == StatusFair || s == StatusPoor
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	default:
		return "", invalidInput("gender", "must be male or female")
	}
}

func invalidInput(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalidInput(field, "must be a positive number")
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalidInput(field, "must not be negative")
	}
	return nil
}

func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
