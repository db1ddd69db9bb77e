package config

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fold lower-cases keys and condition tokens for case-insensitive matching.
// A Caser is stateful, so one is created per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Fold returns the case-folded form under which keys and condition tokens
// are matched.
func Fold(s string) string {
	return fold(s)
}

// ToList splits a comma separated value. A field may be wrapped in double
// quotes to embed a literal comma. Elements are trimmed and empty elements
// dropped. Continuation lines of a multi-line value count as separate
// elements. Text that is not valid delimited text is split on bare commas.
func ToList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, "\n", ",")

	r := csv.NewReader(strings.NewReader(raw))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err != nil {
		fields = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CoerceBool converts the usual spellings of true and false. Any other text
// is returned unchanged as a string, so callers must accept either type.
func CoerceBool(raw string) any {
	switch fold(strings.TrimSpace(raw)) {
	case "1", "on", "true", "yes":
		return true
	case "0", "off", "false", "no":
		return false
	}
	return raw
}

// Coerce converts one raw element to t.
func Coerce(raw string, t ValueType) (any, error) {
	switch t {
	case TypeBool:
		v := CoerceBool(raw)
		if _, ok := v.(bool); !ok {
			return v, fmt.Errorf("%q is not a boolean", raw)
		}
		return v, nil
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}
