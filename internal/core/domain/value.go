package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single result cell.
type Value struct {
	Kind Kind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
	Time time.Time
}

func Null() Value                { return Value{Kind: KindNull} }
func IntValue(n int64) Value     { return Value{Kind: KindInt, Int: n} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Flt: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

func (v Value) IsNull() bool    { return v.Kind == KindNull }
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// String is the display form used in text tables. NULL renders as "NULL".
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 && v.Time.Nanosecond() == 0 {
			return v.Time.Format(time.DateOnly)
		}
		return v.Time.Format(time.DateTime)
	default:
		return "NULL"
	}
}

// Any returns the JSON-friendly Go value.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Flt
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// uintValue keeps unsigned values above MaxInt64 (BIGINT UNSIGNED) exact by
// falling back to their decimal text.
func uintValue(n uint64) Value {
	if n > math.MaxInt64 {
		return StringValue(strconv.FormatUint(n, 10))
	}
	return IntValue(int64(n))
}

// ValueOf converts a value produced by a database driver.
func ValueOf(src any) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case bool:
		return BoolValue(x)
	case string:
		return StringValue(x)
	case []byte:
		// MySQL hands back text and DECIMAL columns as raw bytes.
		return StringValue(string(x))
	case time.Time:
		return TimeValue(x)
	case *big.Int:
		return StringValue(x.String())
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return StringValue(fmt.Sprint(src))
		}
		if _, same := inner.(driver.Valuer); same {
			return StringValue(fmt.Sprint(inner))
		}
		return ValueOf(inner)
	case fmt.Stringer:
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprint(src))
	}
}

// Row is one result row with its columns in driver order.
type Row struct {
	Columns []string
	Values  []Value
}

// NewRow builds a Row, converting each driver value with ValueOf.
func NewRow(columns []string, values []any) Row {
	r := Row{Columns: columns, Values: make([]Value, len(columns))}
	for i := range columns {
		if i < len(values) {
			r.Values[i] = ValueOf(values[i])
		}
	}
	return r
}

// Get returns the value of column col, or NULL when the row lacks it.
func (r Row) Get(col string) Value {
	for i, c := range r.Columns {
		if c == col && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return Null()
}

// Map returns the row as JSON-ready column -> value pairs.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			m[c] = r.Values[i].Any()
		}
	}
	return m
}

// Columns returns the union of column names across rows in first-seen order.
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range rows {
		for _, c := range r.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}
