package hasher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/MKhiriev/bank-mmudzi/models"
)

// Canonical returns the canonical byte encoding of row.
//
// The encoding is a JSON object with keys in ascending order, strings in
// Unicode NFC form and no HTML escaping. Driver-specific value types are
// folded onto one representation first, so the same logical row read from
// Postgres and from SQLite encodes identically:
//   - []byte becomes a string;
//   - every integer type becomes int64, and so do floats without a fraction;
//   - bool becomes 1 or 0;
//   - time.Time becomes a UTC RFC 3339 string at microsecond precision.
func Canonical(row models.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, map[string]any(row)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	normalized := make(map[string]any, len(obj))
	for k, v := range obj {
		nk := norm.NFC.String(k)
		keys = append(keys, nk)
		normalized[nk] = v
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, normalized[k]); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := normalizeValue(v).(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return writeString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case map[string]any:
		return writeObject(buf, val)
	case []any:
		return writeArray(buf, val)
	default:
		return fmt.Errorf("unsupported value type %T", val)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// normalizeValue folds driver-specific representations onto the small set
// of types writeValue understands.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return normalizeUint(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return normalizeUint(val)
	case float32:
		return normalizeFloat(float64(val))
	case float64:
		return normalizeFloat(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return val.String()
	case time.Time:
		return val.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
	case models.Row:
		return map[string]any(val)
	case map[string]any:
		return val
	case []any:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return strconv.FormatFloat(f, 'g', -1, 64)
	case f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64:
		return int64(f)
	default:
		return f
	}
}
