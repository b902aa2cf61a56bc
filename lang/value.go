package lang

import (
	"strconv"
	"strings"
)

// ValueKind indicates the dynamic type held by a [Value].
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a configuration option or context variable. Exactly one of its
// payload fields is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	str  string
	num  int64
	flt  float64
	bit  bool
}

// StringValue returns a string [Value].
func StringValue(s string) Value { return Value{Kind: ValueString, str: s} }

// IntValue returns an integer [Value].
func IntValue(n int64) Value { return Value{Kind: ValueInt, num: n} }

// FloatValue returns a floating-point [Value].
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, flt: f} }

// BoolValue returns a boolean [Value].
func BoolValue(b bool) Value { return Value{Kind: ValueBool, bit: b} }

// ParseValue interprets literal configuration text. Quoted text is always a
// string; otherwise booleans, integers, and floats are recognized before
// falling back to the raw text.
func ParseValue(text string) Value {
	text = strings.TrimSpace(text)

	if quotedLiteral(text) {
		return StringValue(text[1 : len(text)-1])
	}

	switch strings.ToLower(text) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return IntValue(n)
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return FloatValue(f)
	}

	return StringValue(text)
}

// quotedLiteral reports whether s is one quoted string literal, as opposed
// to an expression such as "a" + "b" that merely starts and ends with quotes.
func quotedLiteral(s string) bool {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return false
	}

	for i := 1; i < len(s)-1; i++ {
		switch s[i] {
		case '\\':
			i++
		case s[0]:
			return false
		}
	}

	return true
}

// ValueOf converts a native Go value into a [Value]. It reports false for
// types without a [Value] representation.
func ValueOf(v any) (Value, bool) {
	switch t := v.(type) {
	case Value:
		return t, true
	case string:
		return StringValue(t), true
	case bool:
		return BoolValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int32:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case uint:
		return IntValue(int64(t)), true
	case float32:
		return FloatValue(float64(t)), true
	case float64:
		return FloatValue(t), true
	default:
		return Value{}, false
	}
}

// String returns the textual form of v.
func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.num, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.bit)
	default:
		return v.str
	}
}

// Bool returns the truth value of v. Numbers are true when non-zero and
// strings when they spell a true value.
func (v Value) Bool() bool {
	switch v.Kind {
	case ValueBool:
		return v.bit
	case ValueInt:
		return v.num != 0
	case ValueFloat:
		return v.flt != 0
	default:
		switch strings.ToLower(v.str) {
		case "true", "yes", "on", "1":
			return true
		}

		return false
	}
}

// Int returns v as an integer. It reports false if v is not numeric.
func (v Value) Int() (int, bool) {
	switch v.Kind {
	case ValueInt:
		return int(v.num), true
	case ValueFloat:
		return int(v.flt), true
	case ValueString:
		n, err := strconv.Atoi(v.str)

		return n, err == nil
	default:
		return 0, false
	}
}

// Any returns the native Go value held by v.
func (v Value) Any() any {
	switch v.Kind {
	case ValueInt:
		return v.num
	case ValueFloat:
		return v.flt
	case ValueBool:
		return v.bit
	default:
		return v.str
	}
}
