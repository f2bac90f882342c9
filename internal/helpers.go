package internal

import "strconv"

// ContextValue returns the value stored under key by Context.Set, or the
// zero value of T when absent or of another type.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Payload decodes the JSON request body into a new T.
// Failures are returned as 400 HTTPErrors.
//
//	func (h *Orders) created(c relay.Context) error {
//	    order, err := relay.Payload[OrderCreated](c)
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func Payload[T any](c Context) (T, error) {
	var v T
	if err := c.Bind(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Param returns the URL parameter converted to T, or the zero value.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := convertParam[T](c.Param(name))
	return v
}

func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := convertParam[T](c.Query(name))
	return v
}

// QueryDefault returns defaultValue when the query parameter is empty or
// does not parse as T.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	if v, ok := convertParam[T](raw); ok {
		return v
	}
	return defaultValue
}

func convertParam[T ~string | ~int | ~int64 | ~float64 | ~bool](raw string) (T, bool) {
	var (
		zero T
		out  any
		err  error
	)
	switch any(zero).(type) {
	case string:
		out = raw
	case int:
		out, err = strconv.Atoi(raw)
	case int64:
		out, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		out, err = strconv.ParseFloat(raw, 64)
	case bool:
		out, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	v, ok := out.(T)
	return v, ok
}
