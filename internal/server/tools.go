// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"calorie-scan/internal/models"
)

var (
	errInvalidParams = errors.New("invalid parameters")
	errNothingToSave = errors.New("no analysis result to add")
)

type SelectImageParams struct {
	ImageURL string `json:"image_url" description:"Image reference, usually a data: URI"`
}

type AnalyzeImageParams struct {
	ImageURL     string `json:"image_url,omitempty" description:"Image to select before analyzing (defaults to the current image)"`
	AddToHistory bool   `json:"add_to_history,omitempty" description:"Whether to add the result to history"`
}

type GetHistoryParams struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of entries to return, newest first"`
}

type AnalyzeImageResult struct {
	models.AnalysisSummary
	AddedToHistory     bool `json:"added_to_history"`
	TotalCaloriesToday int  `json:"total_calories_today"`
}

type HistoryResult struct {
	Entries            []models.FoodItem `json:"entries"`
	Count              int               `json:"count"`
	TotalCaloriesToday int               `json:"total_calories_today"`
}

type TotalResult struct {
	TotalCaloriesToday int `json:"total_calories_today"`
}

// extractParams converts the request arguments into target
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *CalorieServer) handleSelectImage(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SelectImageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.session.SelectImage(params.ImageURL); err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.session.State())
}

func (s *CalorieServer) handleClearImage(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	s.session.ClearImage()
	return s.createJSONResponse(s.session.State())
}

// handleAnalyzeImage runs one analysis and waits for it. If the caller goes
// away first the analysis still completes and lands in the session.
func (s *CalorieServer) handleAnalyzeImage(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeImageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.ImageURL != "" {
		if err := s.session.SelectImage(params.ImageURL); err != nil {
			return nil, err
		}
	}

	item, err := s.session.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}

	if params.AddToHistory {
		s.history.Add(*item)
	}

	return s.createJSONResponse(AnalyzeImageResult{
		AnalysisSummary:    models.Summarize(*item),
		AddedToHistory:     params.AddToHistory,
		TotalCaloriesToday: s.history.TotalCaloriesToday(),
	})
}

func (s *CalorieServer) handleGetSession(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return s.createJSONResponse(s.session.State())
}

func (s *CalorieServer) handleAddToHistory(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	item, ok := s.session.LastResult()
	if !ok {
		return nil, errNothingToSave
	}
	s.history.Add(item)
	return s.createJSONResponse(HistoryResult{
		Entries:            []models.FoodItem{item},
		Count:              s.history.Len(),
		TotalCaloriesToday: s.history.TotalCaloriesToday(),
	})
}

func (s *CalorieServer) handleGetHistory(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetHistoryParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	entries := s.history.Recent(params.Limit)
	return s.createJSONResponse(HistoryResult{
		Entries:            entries,
		Count:              len(entries),
		TotalCaloriesToday: s.history.TotalCaloriesToday(),
	})
}

func (s *CalorieServer) handleClearHistory(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	s.history.Clear()
	return s.createJSONResponse(HistoryResult{
		Entries: []models.FoodItem{},
	})
}

func (s *CalorieServer) handleGetTotalCaloriesToday(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return s.createJSONResponse(TotalResult{
		TotalCaloriesToday: s.history.TotalCaloriesToday(),
	})
}

func (s *CalorieServer) registerTools() {
	s.tools = map[string]toolHandler{
		"select_image":             s.handleSelectImage,
		"clear_image":              s.handleClearImage,
		"analyze_image":            s.handleAnalyzeImage,
		"get_session":              s.handleGetSession,
		"add_to_history":           s.handleAddToHistory,
		"get_history":              s.handleGetHistory,
		"clear_history":            s.handleClearHistory,
		"get_total_calories_today": s.handleGetTotalCaloriesToday,
	}
	for name := range s.tools {
		log.Printf("Registered tool: %s", name)
	}
}
