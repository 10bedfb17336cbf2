// internal/models/food.go
package models

import (
	"time"
)

// Nutrients holds macro-nutrient amounts in grams.
type Nutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Sugar   float64 `json:"sugar"`
}

// Scale multiplies every field by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Protein: n.Protein * factor,
		Carbs:   n.Carbs * factor,
		Fat:     n.Fat * factor,
		Fiber:   n.Fiber * factor,
		Sugar:   n.Sugar * factor,
	}
}

// FoodRecord is a static reference entry the analyzer samples from.
type FoodRecord struct {
	Name           string    `json:"name"`
	BaseCalories   float64   `json:"base_calories"`
	BaseConfidence float64   `json:"base_confidence"`
	BaseNutrients  Nutrients `json:"base_nutrients"`
	PortionLabel   string    `json:"portion_label"`
}

// FoodItem is the result of analyzing one image. The JSON shape is the
// persisted history layout.
type FoodItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Calories   int       `json:"calories"`
	Confidence float64   `json:"confidence"`
	Nutrients  Nutrients `json:"nutrients"`
	Portion    string    `json:"portion"`
	Timestamp  time.Time `json:"timestamp"`
	ImageRef   string    `json:"imageUrl"`
}

type ConfidenceLevel string

const (
	HighConfidence   ConfidenceLevel = "high"
	MediumConfidence ConfidenceLevel = "medium"
	LowConfidence    ConfidenceLevel = "low"
)

// ConfidenceBand buckets a raw confidence score the way results are labelled
// for display.
func ConfidenceBand(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.8:
		return HighConfidence
	case confidence >= 0.6:
		return MediumConfidence
	default:
		return LowConfidence
	}
}

// Energy per gram of each macro.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// CalorieDistribution is the share of an item's calories contributed by each
// macro, in percent. The shares are not normalised and need not sum to 100.
type CalorieDistribution struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

func (f FoodItem) Distribution() CalorieDistribution {
	if f.Calories <= 0 {
		return CalorieDistribution{}
	}
	total := float64(f.Calories)
	return CalorieDistribution{
		Protein: f.Nutrients.Protein * KcalPerGramProtein / total * 100,
		Carbs:   f.Nutrients.Carbs * KcalPerGramCarbs / total * 100,
		Fat:     f.Nutrients.Fat * KcalPerGramFat / total * 100,
	}
}

// AnalysisSummary is a FoodItem plus its derived display values.
type AnalysisSummary struct {
	Item         FoodItem            `json:"item"`
	Level        ConfidenceLevel     `json:"confidence_level"`
	Distribution CalorieDistribution `json:"calorie_distribution"`
}

func Summarize(item FoodItem) AnalysisSummary {
	return AnalysisSummary{
		Item:         item,
		Level:        ConfidenceBand(item.Confidence),
		Distribution: item.Distribution(),
	}
}
