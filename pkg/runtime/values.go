package runtime

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInteger Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindBool:
		return "Boolean"
	case KindString:
		return "String"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the closed set of scalar runtime values. Only the types declared
// in this package implement it.
type Value interface {
	Kind() Kind
	isValue()
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }
func (IntegerValue) isValue()     {}

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }
func (BoolValue) isValue()     {}

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }
func (StringValue) isValue()     {}

// Render produces the textual form used by Print, Println and ToString.
func Render(v Value) string {
	switch val := v.(type) {
	case IntegerValue:
		return strconv.FormatInt(val.Val, 10)
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case StringValue:
		return val.Val
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}

// ValuesEqual compares tag and payload; values of different kinds are never
// equal.
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case IntegerValue:
		bv, ok := b.(IntegerValue)
		return ok && av.Val == bv.Val
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	default:
		return false
	}
}

// Describe renders a value with its kind for diagnostics.
func Describe(v Value) string {
	if v == nil {
		return "<nil>"
	}
	if s, ok := v.(StringValue); ok {
		return fmt.Sprintf("%s %q", v.Kind(), s.Val)
	}
	return fmt.Sprintf("%s %s", v.Kind(), Render(v))
}
