// internal/history/snapshot.go
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"calorie-scan/internal/models"
)

// timestampLayout matches what browsers emit for Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var errMalformedSnapshot = errors.New("malformed history snapshot")

type snapshotNutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Sugar   float64 `json:"sugar"`
}

type snapshotRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Calories   int               `json:"calories"`
	Confidence float64           `json:"confidence"`
	Nutrients  snapshotNutrients `json:"nutrients"`
	Portion    string            `json:"portion"`
	Timestamp  string            `json:"timestamp"`
	ImageURL   string            `json:"imageUrl"`
}

func encodeSnapshot(entries []models.FoodItem) ([]byte, error) {
	records := make([]snapshotRecord, 0, len(entries))
	for _, item := range entries {
		records = append(records, snapshotRecord{
			ID:         item.ID,
			Name:       item.Name,
			Calories:   item.Calories,
			Confidence: item.Confidence,
			Nutrients:  snapshotNutrients(item.Nutrients),
			Portion:    item.Portion,
			Timestamp:  item.Timestamp.UTC().Format(timestampLayout),
			ImageURL:   item.ImageRef,
		})
	}
	return json.Marshal(records)
}

// decodeSnapshot parses a persisted list. Timestamps lose their type in
// storage, so each one is revived into a time.Time here. Any element that
// cannot be revived makes the whole snapshot malformed.
func decodeSnapshot(data []byte) ([]models.FoodItem, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", errMalformedSnapshot)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", errMalformedSnapshot, root.Type)
	}

	var (
		entries []models.FoodItem
		decErr  error
		idx     int
	)
	root.ForEach(func(_, value gjson.Result) bool {
		defer func() { idx++ }()
		if !value.IsObject() {
			decErr = fmt.Errorf("%w: entry %d is not an object", errMalformedSnapshot, idx)
			return false
		}
		ts, err := reviveTimestamp(value.Get("timestamp"))
		if err != nil {
			decErr = fmt.Errorf("%w: entry %d: %v", errMalformedSnapshot, idx, err)
			return false
		}
		n := value.Get("nutrients")
		entries = append(entries, models.FoodItem{
			ID:         value.Get("id").String(),
			Name:       value.Get("name").String(),
			Calories:   int(value.Get("calories").Int()),
			Confidence: value.Get("confidence").Float(),
			Nutrients: models.Nutrients{
				Protein: n.Get("protein").Float(),
				Carbs:   n.Get("carbs").Float(),
				Fat:     n.Get("fat").Float(),
				Fiber:   n.Get("fiber").Float(),
				Sugar:   n.Get("sugar").Float(),
			},
			Portion:   value.Get("portion").String(),
			Timestamp: ts,
			ImageRef:  value.Get("imageUrl").String(),
		})
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return entries, nil
}

// reviveTimestamp accepts an RFC 3339 string or epoch milliseconds.
func reviveTimestamp(v gjson.Result) (time.Time, error) {
	switch v.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q: %w", v.Str, err)
		}
		return t, nil
	case gjson.Number:
		return time.UnixMilli(v.Int()), nil
	default:
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
}
