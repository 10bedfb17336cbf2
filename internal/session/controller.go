// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"calorie-scan/internal/analyzer"
	"calorie-scan/internal/models"
)

var (
	ErrImageRequired    = errors.New("image reference is required")
	ErrNoImage          = errors.New("no image selected")
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	ErrNoResult         = errors.New("analysis did not produce a result")
)

// State is a point-in-time copy of the controller's fields.
type State struct {
	CurrentImage string           `json:"currentImage,omitempty"`
	IsAnalyzing  bool             `json:"isAnalyzing"`
	LastResult   *models.FoodItem `json:"lastResult,omitempty"`
}

// Controller owns the current image, the in-flight flag and the latest result.
// At most one analysis runs at a time. Selecting or clearing the image while an
// analysis is running does not cancel it: the result is still committed.
type Controller struct {
	analyzer analyzer.Analyzer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	currentImage string
	analyzing    bool
	lastResult   *models.FoodItem
}

func NewController(a analyzer.Analyzer) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		analyzer: a,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SelectImage sets the current image. lastResult is left as it was.
func (c *Controller) SelectImage(imageRef string) error {
	if imageRef == "" {
		return ErrImageRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentImage = imageRef
	return nil
}

func (c *Controller) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentImage = ""
}

// StartAnalysis begins analyzing the current image in the background. It
// reports false and changes nothing when no image is selected or another
// analysis is still running. The returned channel yields the committed result
// (nil if the analyzer failed) and is then closed.
func (c *Controller) StartAnalysis() (<-chan *models.FoodItem, bool) {
	done, err := c.start()
	return done, err == nil
}

func (c *Controller) start() (<-chan *models.FoodItem, error) {
	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return nil, ErrAnalysisInFlight
	}
	if c.currentImage == "" {
		c.mu.Unlock()
		return nil, ErrNoImage
	}
	imageRef := c.currentImage
	c.analyzing = true
	c.lastResult = nil
	c.wg.Add(1)
	c.mu.Unlock()

	done := make(chan *models.FoodItem, 1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		item, err := c.analyzer.Analyze(c.ctx, imageRef)
		if err != nil {
			log.Printf("analysis failed: %v", err)
			item = nil
		}

		c.mu.Lock()
		c.analyzing = false
		c.lastResult = item
		c.mu.Unlock()

		done <- item
	}()
	return done, nil
}

// Analyze starts an analysis and waits for it. The returned error tells why a
// start was rejected, or is ctx.Err() if the caller stopped waiting. In the
// latter case the analysis keeps running and its result is still committed.
func (c *Controller) Analyze(ctx context.Context) (*models.FoodItem, error) {
	done, err := c.start()
	if err != nil {
		return nil, err
	}
	select {
	case item := <-done:
		if item == nil {
			return nil, ErrNoResult
		}
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		CurrentImage: c.currentImage,
		IsAnalyzing:  c.analyzing,
	}
	if c.lastResult != nil {
		result := *c.lastResult
		st.LastResult = &result
	}
	return st
}

// LastResult returns a copy of the most recent committed result.
func (c *Controller) LastResult() (models.FoodItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResult == nil {
		return models.FoodItem{}, false
	}
	return *c.lastResult, true
}

// Close cancels an in-flight analysis and waits for its goroutine to exit.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
