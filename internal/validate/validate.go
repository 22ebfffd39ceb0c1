package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePrice = regexp.MustCompile(`^[0-9][0-9.,]*$`)
)

// FieldError names the form field that failed and why.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

func fail(field, msg string) *FieldError { return &FieldError{Field: field, Msg: msg} }

// Required trims s and rejects it when empty.
func Required(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail(field, "is required")
	}
	return s, nil
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, error) {
	s, err := Required("name", s)
	if err != nil {
		return "", err
	}
	if len(s) > 80 {
		return "", fail("name", "must be at most 80 characters")
	}
	return s, nil
}

func Description(s string) (string, error) {
	s, err := Required("description", s)
	if err != nil {
		return "", err
	}
	if len(s) > 1000 {
		return "", fail("description", "must be at most 1000 characters")
	}
	return s, nil
}

// Note is optional free text attached to an order.
func Note(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return "", fail("note", "must be at most 500 characters")
	}
	return s, nil
}

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Price parses "12.50" or Brazilian "1.234,56". When a comma is present it is the
// decimal separator and dots are thousands separators.
func Price(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, fail("price", "is required")
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, fail("price", "cannot be negative")
	}
	if !rePrice.MatchString(s) {
		return decimal.Zero, fail("price", "is not a valid number")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fail("price", "is not a valid number")
	}
	return d.Round(2), nil
}

// Category requires a selection.
func Category(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail("category", "select a category")
	}
	if _, ok := ID(s); !ok {
		return "", fail("category", "is not a valid id")
	}
	return s, nil
}

// Delta parses a cart adjustment step; anything unparseable is zero.
func Delta(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
