package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type AmountKind uint8

const (
	AmountMissing AmountKind = iota
	AmountNumber
	AmountText
)

// Amount is a monetary (or count) field as it arrives from upstream: either
// absent, a JSON number, or free text such as "₹1,234.50".
type Amount struct {
	Kind   AmountKind
	Number decimal.Decimal
	Text   string
}

func NumberOf(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{Kind: AmountNumber, Number: decimal.NewFromFloat(v)}
}

func DecimalOf(d decimal.Decimal) Amount {
	return Amount{Kind: AmountNumber, Number: d}
}

func TextOf(s string) Amount {
	return Amount{Kind: AmountText, Text: s}
}

func (a Amount) IsMissing() bool {
	return a.Kind == AmountMissing
}

func (a Amount) Decimal() decimal.Decimal {
	return Normalize(a)
}

// UnmarshalJSON never fails: objects, arrays and booleans decode as missing.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*a = TextOf(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if d, err := decimal.NewFromString(string(trimmed)); err == nil {
			*a = DecimalOf(d)
		}
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AmountNumber:
		return []byte(a.Number.String()), nil
	case AmountText:
		return json.Marshal(a.Text)
	default:
		return []byte("null"), nil
	}
}

// Normalize coerces any representation of an amount to a decimal. Numbers
// pass through unchanged; strings are stripped to digits and dots and the
// leading decimal is parsed; everything else is zero.
func Normalize(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case Amount:
		switch n.Kind {
		case AmountNumber:
			return n.Number
		case AmountText:
			return parseText(n.Text)
		default:
			return decimal.Zero
		}
	case *Amount:
		if n == nil {
			return decimal.Zero
		}
		return Normalize(*n)
	case decimal.Decimal:
		return n
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int8:
		return decimal.NewFromInt(int64(n))
	case int16:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case uint:
		return decimal.NewFromUint64(uint64(n))
	case uint8:
		return decimal.NewFromUint64(uint64(n))
	case uint16:
		return decimal.NewFromUint64(uint64(n))
	case uint32:
		return decimal.NewFromUint64(uint64(n))
	case uint64:
		return decimal.NewFromUint64(n)
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
		return parseText(n.String())
	case string:
		return parseText(n)
	case *string:
		if n == nil {
			return decimal.Zero
		}
		return parseText(*n)
	default:
		return decimal.Zero
	}
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FormatPrice(v any) string {
	return Format(Normalize(v))
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// parseText keeps digits and dots, then reads the longest leading decimal
// ("1.2.3" reads as 1.2).
func parseText(s string) decimal.Decimal {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	seenDot := false
	end := len(cleaned)
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] != '.' {
			continue
		}
		if seenDot {
			end = i
			break
		}
		seenDot = true
	}
	cleaned = strings.TrimSuffix(cleaned[:end], ".")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
