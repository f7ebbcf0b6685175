package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
)

var (
	errBadNumber = errors.New("not a number")
	errBadDate   = errors.New("unrecognized date")
)

// nullTokens are placeholder strings spreadsheet exports write into empty
// cells
var nullTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
	"n/a":  true,
}

func isNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// normalizeID trims an identifier and strips the ".0" a float-typed column
// leaves behind ("1042.0" → "1042")
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if isNullToken(s) {
		return ""
	}
	if strings.HasSuffix(s, ".0") && isDigits(strings.TrimSuffix(s, ".0")) {
		s = strings.TrimSuffix(s, ".0")
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseNullableString returns "" for empty and placeholder cells
func parseNullableString(s string) string {
	if isNullToken(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// parseNullableDecimal parses optional decimal fields. Blank cells return
// nil without error; malformed cells return nil and an error.
func parseNullableDecimal(s string, rowNum int, columnName string) (*decimal.Decimal, error) {
	if isNullToken(s) {
		return nil, nil
	}

	cleaned := cleanCurrency(s)
	if cleaned == "" || cleaned == "-" {
		return nil, nil
	}

	val, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, &ValidationError{
			Row:    rowNum,
			Column: columnName,
			Value:  s,
			Err:    errBadNumber,
		}
	}

	return &val, nil
}

// cleanCurrency removes $ and commas from currency strings
// Also handles accounting notation: (123.45) → -123.45
func cleanCurrency(s string) string {
	s = strings.TrimSpace(s)

	// Handle accounting notation for negative numbers: (5517.95) means -5517.95
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimPrefix(s, "(")
		s = strings.TrimSuffix(s, ")")
		s = strings.TrimSpace(s)
	}

	// Remove currency symbols and formatting
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	// Add negative sign if needed
	if isNegative && s != "" && s != "0" && s != "0.00" {
		s = "-" + s
	}

	return s
}

// parseNullableDate handles the date shapes the accounting exports produce,
// including spreadsheet serial numbers
func parseNullableDate(s string, rowNum int, columnName string) (*time.Time, error) {
	if isNullToken(s) {
		return nil, nil
	}

	t, ok := aging.ParseDate(s)
	if !ok {
		return nil, &ValidationError{
			Row:    rowNum,
			Column: columnName,
			Value:  s,
			Err:    errBadDate,
		}
	}

	return &t, nil
}

// parseBool handles the flag spellings seen in exports: TRUE, Y, 1, 1.0
func parseBool(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "TRUE", "T", "YES", "Y", "1", "1.0", "-1":
		return true
	}
	return false
}
