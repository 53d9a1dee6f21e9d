package bridge

import (
	"encoding/json"
	"strconv"
)

// Response is a host payload or an error sentinel, never both.
type Response map[string]any

func errorResponse(msg string) Response {
	return Response{"error": msg}
}

// Err reports the sentinel message when the response is an error.
func (r Response) Err() (string, bool) {
	v, ok := r["error"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

// String returns key as text; numbers are formatted.
func (r Response) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Float returns key as a number, zero when absent or not numeric.
func (r Response) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Map returns a nested object as a Response.
func (r Response) Map(key string) Response {
	switch v := r[key].(type) {
	case map[string]any:
		return Response(v)
	case Response:
		return v
	}
	return nil
}

// List returns a nested array. Object elements are converted to Responses.
func (r Response) List(key string) []any {
	switch v := r[key].(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = Response(m)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	}
	return nil
}

// AsResponse converts a list element produced by List.
func AsResponse(v any) Response {
	switch m := v.(type) {
	case map[string]any:
		return Response(m)
	case Response:
		return m
	}
	return nil
}
