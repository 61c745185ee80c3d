package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/shop"
)

// Record is one persisted row keyed by column name. Values are whatever the
// backend's driver produced: int64, float64, string, []byte, time.Time, ...
type Record map[string]any

// timeLayouts are the textual timestamp forms produced by the supported
// drivers when a column is not decoded to time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// fieldReader pulls typed values out of a Record and keeps the first failure
// as a *shop.MappingError.
type fieldReader struct {
	entity string
	rec    Record
	err    error
}

func newFieldReader(entity string, rec Record) *fieldReader {
	return &fieldReader{entity: entity, rec: rec}
}

func (r *fieldReader) fail(column, reason string) {
	if r.err == nil {
		r.err = &shop.MappingError{Entity: r.entity, Column: column, Reason: reason}
	}
}

func (r *fieldReader) value(column string) (any, bool) {
	v, ok := r.rec[column]
	if !ok {
		r.fail(column, "missing column")
		return nil, false
	}
	if v == nil {
		r.fail(column, "null value")
		return nil, false
	}
	return v, true
}

func (r *fieldReader) readInt(column string) int {
	n := r.readInt64(column)
	if n < math.MinInt32 || n > math.MaxInt32 {
		r.fail(column, fmt.Sprintf("integer %d out of range", n))
		return 0
	}
	return int(n)
}

func (r *fieldReader) readInt64(column string) int64 {
	v, ok := r.value(column)
	if !ok {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		r.fail(column, err.Error())
		return 0
	}
	return n
}

func (r *fieldReader) readString(column string) string {
	v, ok := r.value(column)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		r.fail(column, fmt.Sprintf("cannot read %T as string", v))
		return ""
	}
}

func (r *fieldReader) readDecimal(column string) decimal.Decimal {
	v, ok := r.value(column)
	if !ok {
		return decimal.Zero
	}
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		d, err = decimal.NewFromString(strings.TrimSpace(string(x)))
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	default:
		var n int64
		n, err = toInt64(v)
		d = decimal.NewFromInt(n)
	}
	if err != nil {
		r.fail(column, fmt.Sprintf("cannot read %T as decimal: %v", v, err))
		return decimal.Zero
	}
	return d
}

func (r *fieldReader) readTime(column string) time.Time {
	v, ok := r.value(column)
	if !ok {
		return time.Time{}
	}
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		return r.parseTime(column, x)
	case []byte:
		return r.parseTime(column, string(x))
	default:
		r.fail(column, fmt.Sprintf("cannot read %T as time", v))
		return time.Time{}
	}
}

func (r *fieldReader) parseTime(column, s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	r.fail(column, fmt.Sprintf("unrecognized time %q", s))
	return time.Time{}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d out of range", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integral number %v", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}

// IntColumn reads column of rec as an int.
func IntColumn(rec Record, column string) (int, error) {
	r := newFieldReader("row", rec)
	n := r.readInt(column)
	return n, r.err
}
