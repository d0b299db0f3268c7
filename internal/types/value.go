package types

import (
	"fmt"
	"strconv"
	"time"
)

// FormatValue converts a resolved cell value to its display string.
// nil becomes the empty string.
func FormatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format(time.RFC3339)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// Text returns the display string of the cell's value. Formula and plain
// cells are formatted the same way.
func (c Cell) Text() string {
	return FormatValue(c.Value)
}
