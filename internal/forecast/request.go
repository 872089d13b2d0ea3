package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/validation"
)

// Request carries the five raw inputs. Students may be any Go integer, an
// integral float, a json.Number or a decimal string.
type Request struct {
	Season       string      `json:"season"`
	DayType      string      `json:"day_type"`
	Day          string      `json:"day"`
	MealCategory string      `json:"meal_category"`
	Students     interface{} `json:"students"`
}

var requestFields = []string{"season", "day_type", "day", "meal_category", "students"}

var requestSchema = validation.MustCompileSchema(`{
	"type": "object",
	"properties": {
		"season":        {"type": "string"},
		"day_type":      {"type": "string"},
		"day":           {"type": "string"},
		"meal_category": {"type": "string"},
		"students":      {"type": ["integer", "string"]}
	},
	"required": ["season", "day_type", "day", "meal_category", "students"]
}`)

// RequestFromPayload checks a decoded JSON object against the request schema
// and builds a Request. Missing fields are reported before type problems.
func RequestFromPayload(payload map[string]interface{}) (Request, error) {
	if missing := missingFields(payload); len(missing) > 0 {
		return Request{}, errors.NewMissingParameterError(missing...)
	}

	result, err := requestSchema.Validate(payload)
	if err != nil {
		return Request{}, errors.NewInvalidPayloadError(err.Error())
	}
	if !result.Valid {
		if result.HasErrors("students") {
			return Request{}, errors.NewInvalidTypeError("students", payload["students"])
		}
		return Request{}, errors.NewInvalidPayloadError(strings.Join(result.GetErrorMessages(), "; "))
	}

	return Request{
		Season:       payload["season"].(string),
		DayType:      payload["day_type"].(string),
		Day:          payload["day"].(string),
		MealCategory: payload["meal_category"].(string),
		Students:     payload["students"],
	}, nil
}

func missingFields(payload map[string]interface{}) []string {
	var missing []string
	for _, f := range requestFields {
		if isBlank(payload[f]) {
			missing = append(missing, f)
		}
	}
	return missing
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// Validate checks presence of all five inputs, then the student count.
func (r Request) Validate() (PredictionContext, error) {
	values := map[string]interface{}{
		"season":        r.Season,
		"day_type":      r.DayType,
		"day":           r.Day,
		"meal_category": r.MealCategory,
		"students":      r.Students,
	}
	if missing := missingFields(values); len(missing) > 0 {
		return PredictionContext{}, errors.NewMissingParameterError(missing...)
	}

	students, err := ParseStudents(r.Students)
	if err != nil {
		return PredictionContext{}, err
	}

	return PredictionContext{
		Season:       r.Season,
		DayType:      r.DayType,
		Day:          r.Day,
		MealCategory: r.MealCategory,
		StudentCount: students,
	}, nil
}

// maxStudents bounds the count whatever form it arrives in.
const maxStudents = math.MaxInt32

// ParseStudents converts the raw student count to an int in [0, maxStudents].
func ParseStudents(v interface{}) (int, error) {
	n, ok := toInt64(v)
	if !ok || n < 0 || n > maxStudents {
		return 0, errors.NewInvalidTypeError("students", v)
	}
	return int(n), nil
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), uint64(t) <= math.MaxInt64
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), t <= math.MaxInt64
	case float32:
		return floatToInt64(float64(t))
	case float64:
		return floatToInt64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return floatToInt64(f)
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// floatToInt64 rejects fractions and anything past maxStudents, so the
// conversion never overflows.
func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxStudents {
		return 0, false
	}
	return int64(f), true
}

// String renders the context for logs and cache keys.
func (c PredictionContext) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", c.Season, c.DayType, c.Day, c.MealCategory, c.StudentCount)
}
