// Package infodata builds the text shown in the TeamSpeak info panel for a
// server, channel or client.
package infodata

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemKind identifies what the info panel is showing.
type ItemKind int

const (
	ItemServer ItemKind = iota
	ItemChannel
	ItemClient
)

func (k ItemKind) String() string {
	switch k {
	case ItemServer:
		return "server"
	case ItemChannel:
		return "channel"
	case ItemClient:
		return "client"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// ParseItemKind converts a kind name ("server", "channel", "client") to an ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(s) {
	case "server":
		return ItemServer, nil
	case "channel":
		return ItemChannel, nil
	case "client":
		return ItemClient, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemKind, s)
	}
}

// ConnectionID is the host's server connection handler ID.
type ConnectionID uint64

// ClientID is the per-connection client ID (anyID on the host side).
type ClientID uint16

// ValueKind is the type a host attribute is read as.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindUint64
	KindDouble
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint64:
		return "uint64"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Variable names one host attribute and the type it is read as.
type Variable struct {
	Name string
	Kind ValueKind
}

func (v Variable) String() string {
	return v.Name
}

// Value is the typed result of a successful host query.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	unum uint64
	dbl  float64
}

// StringValue wraps a string attribute.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// IntValue wraps an integer attribute.
func IntValue(i int64) Value {
	return Value{kind: KindInt, num: i}
}

// Uint64Value wraps an unsigned 64-bit attribute.
func Uint64Value(u uint64) Value {
	return Value{kind: KindUint64, unum: u}
}

// DoubleValue wraps a floating point attribute.
func DoubleValue(f float64) Value {
	return Value{kind: KindDouble, dbl: f}
}

// ParseValue reads raw as the given kind.
func ParseValue(kind ValueKind, raw string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("failed to parse %q as int: %w", raw, err)
		}

		return IntValue(i), nil
	case KindUint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("failed to parse %q as uint64: %w", raw, err)
		}

		return Uint64Value(u), nil
	case KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("failed to parse %q as double: %w", raw, err)
		}

		return DoubleValue(f), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", int(kind))
	}
}

// Kind reports the type the value was read as.
func (v Value) Kind() ValueKind {
	return v.kind
}

// String renders the value for the info panel. Doubles are truncated
// toward zero and printed without a decimal point.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindUint64:
		return strconv.FormatUint(v.unum, 10)
	case KindDouble:
		return strconv.FormatInt(int64(v.dbl), 10)
	default:
		return v.str
	}
}
