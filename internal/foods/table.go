// internal/foods/table.go
package foods

import "calorie-scan/internal/models"

// Rand is the random source used for sampling. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Table is a non-empty, read-only set of reference records.
type Table []models.FoodRecord

// Default is the curated reference table.
var Default = Table{
	{
		Name:           "Apple",
		BaseCalories:   95,
		BaseConfidence: 0.92,
		BaseNutrients:  models.Nutrients{Protein: 0.5, Carbs: 25, Fat: 0.3, Fiber: 4, Sugar: 19},
		PortionLabel:   "1 medium apple (182g)",
	},
	{
		Name:           "Banana",
		BaseCalories:   105,
		BaseConfidence: 0.88,
		BaseNutrients:  models.Nutrients{Protein: 1.3, Carbs: 27, Fat: 0.4, Fiber: 3, Sugar: 14},
		PortionLabel:   "1 medium banana (118g)",
	},
	{
		Name:           "Pizza Slice",
		BaseCalories:   285,
		BaseConfidence: 0.85,
		BaseNutrients:  models.Nutrients{Protein: 12, Carbs: 36, Fat: 10, Fiber: 2, Sugar: 4},
		PortionLabel:   "1 slice (107g)",
	},
	{
		Name:           "Hamburger",
		BaseCalories:   540,
		BaseConfidence: 0.91,
		BaseNutrients:  models.Nutrients{Protein: 25, Carbs: 40, Fat: 31, Fiber: 2, Sugar: 5},
		PortionLabel:   "1 burger (150g)",
	},
	{
		Name:           "Salad",
		BaseCalories:   150,
		BaseConfidence: 0.76,
		BaseNutrients:  models.Nutrients{Protein: 8, Carbs: 12, Fat: 8, Fiber: 5, Sugar: 6},
		PortionLabel:   "1 bowl (200g)",
	},
	{
		Name:           "Sandwich",
		BaseCalories:   320,
		BaseConfidence: 0.83,
		BaseNutrients:  models.Nutrients{Protein: 15, Carbs: 45, Fat: 12, Fiber: 4, Sugar: 8},
		PortionLabel:   "1 sandwich (180g)",
	},
}

// Pick returns one record chosen uniformly at random.
func (t Table) Pick(r Rand) models.FoodRecord {
	return t[r.Intn(len(t))]
}

// Lookup finds a record by exact name.
func (t Table) Lookup(name string) (models.FoodRecord, bool) {
	for _, rec := range t {
		if rec.Name == name {
			return rec, true
		}
	}
	return models.FoodRecord{}, false
}
