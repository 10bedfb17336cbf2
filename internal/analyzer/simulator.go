// internal/analyzer/simulator.go
package analyzer

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"calorie-scan/internal/foods"
	"calorie-scan/internal/models"
)

const (
	DefaultMinDelay = 2000 * time.Millisecond
	DefaultMaxDelay = 3000 * time.Millisecond

	minVariation     = 0.8
	variationSpread  = 0.4
	confidenceJitter = 0.1
)

// Simulator fakes recognition by sampling the reference table and perturbing
// the chosen record. It performs no I/O and never fails except when ctx is
// cancelled during the artificial delay.
type Simulator struct {
	table    foods.Table
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
	newID    func() string

	mu  sync.Mutex // guards rng
	rng foods.Rand
}

type Option func(*Simulator)

// WithRand replaces the random source. Tests use it to pin the variation.
func WithRand(r foods.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithDelay sets the range the processing delay is drawn from.
func WithDelay(min, max time.Duration) Option {
	return func(s *Simulator) {
		s.minDelay = min
		s.maxDelay = max
	}
}

func WithTable(t foods.Table) Option {
	return func(s *Simulator) { s.table = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithIDFunc(fn func() string) Option {
	return func(s *Simulator) { s.newID = fn }
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		table:    foods.Default,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		now:      time.Now,
		newID:    newItemID,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.table) == 0 {
		s.table = foods.Default
	}
	return s
}

// Analyze waits for the simulated processing time and returns a randomized
// estimate for imageRef.
func (s *Simulator) Analyze(ctx context.Context, imageRef string) (*models.FoodItem, error) {
	if err := sleep(ctx, s.delay()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	record := s.table.Pick(s.rng)
	variation := minVariation + s.rng.Float64()*variationSpread
	jitter := (s.rng.Float64() - 0.5) * confidenceJitter
	s.mu.Unlock()

	return &models.FoodItem{
		ID:         s.newID(),
		Name:       record.Name,
		Calories:   int(math.Round(record.BaseCalories * variation)),
		Confidence: record.BaseConfidence + jitter,
		Nutrients:  roundNutrients(record.BaseNutrients.Scale(variation)),
		Portion:    record.PortionLabel,
		Timestamp:  s.now(),
		ImageRef:   imageRef,
	}, nil
}

func (s *Simulator) delay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	spread := float64(s.maxDelay - s.minDelay)
	return s.minDelay + time.Duration(s.rng.Float64()*spread)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func roundNutrients(n models.Nutrients) models.Nutrients {
	return models.Nutrients{
		Protein: roundTenth(n.Protein),
		Carbs:   roundTenth(n.Carbs),
		Fat:     roundTenth(n.Fat),
		Fiber:   roundTenth(n.Fiber),
		Sugar:   roundTenth(n.Sugar),
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// newItemID returns a time-ordered UUID so later results sort after earlier ones.
func newItemID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
