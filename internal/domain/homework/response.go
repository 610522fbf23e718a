package homework

import (
	"encoding/json"
	"math"
)

// Response is a structurally valid API answer. Homeworks are kept raw and
// parsed one by one with ParseEntry, so a single malformed entry does not hide
// the shape of the rest of the payload.
type Response struct {
	Homeworks      []any
	CurrentDate    int64
	HasCurrentDate bool
}

// ValidateResponse checks the top-level shape of a decoded JSON payload.
// An empty homeworks list is valid.
func ValidateResponse(raw any) (*Response, error) {
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, schemaErr(ReasonNotRecord)
	}

	// A JSON null is treated the same as an absent key.
	rawHomeworks, ok := record["homeworks"]
	if !ok || rawHomeworks == nil {
		return nil, schemaErr(ReasonMissingHomeworks)
	}

	homeworks, ok := rawHomeworks.([]any)
	if !ok {
		return nil, schemaErr(ReasonHomeworksNotList)
	}

	resp := &Response{Homeworks: homeworks}
	if ts, ok := unixSeconds(record["current_date"]); ok {
		resp.CurrentDate = ts
		resp.HasCurrentDate = true
	}
	return resp, nil
}

// unixSeconds accepts the numeric forms encoding/json can produce.
func unixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
