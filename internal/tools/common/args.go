package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError reports malformed capability arguments. It is returned
// before any side effect happens.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// Result renders the error as a failed capability result.
func (e *ValidationError) Result() Result {
	return ErrorResult("Error: " + e.Error())
}

// Invalid returns a ValidationError for tool.
func Invalid(tool, format string, args ...any) *ValidationError {
	return &ValidationError{Tool: tool, Reason: fmt.Sprintf(format, args...)}
}

// OptionalString returns the trimmed string at key. A missing or null
// value yields "".
func OptionalString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

// RequiredString is OptionalString that rejects empty values.
func RequiredString(args map[string]any, key string) (string, error) {
	s, err := OptionalString(args, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// ErrOutOfRange is wrapped by OptionalInt for numbers outside the int32 range.
var ErrOutOfRange = errors.New("is out of range")

// OptionalInt returns the whole number at key, or def when absent.
// JSON numbers arrive as float64.
func OptionalInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		i, err := n.Int64()
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%s %w", key, ErrOutOfRange)
		}
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		f = float64(i)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%s %w", key, ErrOutOfRange)
		}
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		f = float64(i)
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}

	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%s %w", key, ErrOutOfRange)
	}
	return int(f), nil
}
