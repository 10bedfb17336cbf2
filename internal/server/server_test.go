package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"calorie-scan/internal/config"
	"calorie-scan/internal/server"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Storage.Engine = "memory"
	cfg.Storage.Path = ""
	cfg.Analysis.MinDelayMs = 0
	cfg.Analysis.MaxDelayMs = 0
	cfg.Analysis.Seed = 7

	srv, err := server.NewCalorieServer(cfg)
	if err != nil {
		t.Fatalf("NewCalorieServer() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Stop()
	})
	return ts
}

// callTool posts a tool call and decodes the JSON text payload into out.
func callTool(t *testing.T, ts *httptest.Server, name string, args map[string]any, out any) int {
	t.Helper()

	body, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || out == nil {
		return resp.StatusCode
	}

	var result toolResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected %s content: %+v", name, result.Content)
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), out); err != nil {
		t.Fatalf("failed to decode %s payload: %v", name, err)
	}
	return resp.StatusCode
}

func TestAnalyzeAddAndTotal(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var analysis server.AnalyzeImageResult
	if code := callTool(t, ts, "analyze_image", map[string]any{"image_url": testImage}, &analysis); code != http.StatusOK {
		t.Fatalf("analyze_image status = %d", code)
	}
	if analysis.Item.Calories <= 0 || analysis.Item.ImageRef != testImage {
		t.Fatalf("unexpected analysis %+v", analysis.Item)
	}
	if analysis.Level == "" {
		t.Fatalf("expected a confidence level")
	}
	if analysis.AddedToHistory || analysis.TotalCaloriesToday != 0 {
		t.Fatalf("analysis should not touch history: %+v", analysis)
	}

	var added server.HistoryResult
	if code := callTool(t, ts, "add_to_history", nil, &added); code != http.StatusOK {
		t.Fatalf("add_to_history status = %d", code)
	}
	if added.Count != 1 || added.TotalCaloriesToday != analysis.Item.Calories {
		t.Fatalf("unexpected add result %+v", added)
	}

	var total server.TotalResult
	callTool(t, ts, "get_total_calories_today", nil, &total)
	if total.TotalCaloriesToday != analysis.Item.Calories {
		t.Fatalf("expected total %d, got %d", analysis.Item.Calories, total.TotalCaloriesToday)
	}
}

func TestAnalyzeWithAddToHistory(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var first, second server.AnalyzeImageResult
	callTool(t, ts, "analyze_image", map[string]any{"image_url": testImage, "add_to_history": true}, &first)
	callTool(t, ts, "analyze_image", map[string]any{"add_to_history": true}, &second)

	var hist server.HistoryResult
	callTool(t, ts, "get_history", nil, &hist)
	if hist.Count != 2 {
		t.Fatalf("expected 2 entries, got %d", hist.Count)
	}
	if hist.Entries[0].ID != second.Item.ID {
		t.Fatalf("expected newest entry first")
	}
	if want := first.Item.Calories + second.Item.Calories; hist.TotalCaloriesToday != want {
		t.Fatalf("expected total %d, got %d", want, hist.TotalCaloriesToday)
	}

	var limited server.HistoryResult
	callTool(t, ts, "get_history", map[string]any{"limit": 1}, &limited)
	if limited.Count != 1 || limited.TotalCaloriesToday != hist.TotalCaloriesToday {
		t.Fatalf("unexpected limited history %+v", limited)
	}

	var cleared server.HistoryResult
	callTool(t, ts, "clear_history", nil, &cleared)
	var total server.TotalResult
	callTool(t, ts, "get_total_calories_today", nil, &total)
	if total.TotalCaloriesToday != 0 {
		t.Fatalf("expected 0 after clear, got %d", total.TotalCaloriesToday)
	}
}

func TestSessionTools(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var state struct {
		CurrentImage string `json:"currentImage"`
		IsAnalyzing  bool   `json:"isAnalyzing"`
	}
	callTool(t, ts, "select_image", map[string]any{"image_url": testImage}, &state)
	if state.CurrentImage != testImage {
		t.Fatalf("expected image to be selected, got %q", state.CurrentImage)
	}

	callTool(t, ts, "clear_image", nil, &state)
	if state.CurrentImage != "" {
		t.Fatalf("expected image to be cleared, got %q", state.CurrentImage)
	}

	callTool(t, ts, "get_session", nil, &state)
	if state.CurrentImage != "" || state.IsAnalyzing {
		t.Fatalf("unexpected session state %+v", state)
	}
}

func TestToolErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	if code := callTool(t, ts, "analyze_image", nil, nil); code != http.StatusConflict {
		t.Errorf("analyze without image: status = %d, want %d", code, http.StatusConflict)
	}
	if code := callTool(t, ts, "add_to_history", nil, nil); code != http.StatusConflict {
		t.Errorf("add without result: status = %d, want %d", code, http.StatusConflict)
	}
	if code := callTool(t, ts, "select_image", map[string]any{"image_url": ""}, nil); code != http.StatusBadRequest {
		t.Errorf("select empty image: status = %d, want %d", code, http.StatusBadRequest)
	}
	if code := callTool(t, ts, "get_history", map[string]any{"limit": "ten"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want %d", code, http.StatusBadRequest)
	}
	if code := callTool(t, ts, "log_meal", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown tool: status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestHTTPSurface(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /: status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode healthz: %v", err)
	}
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Errorf("unexpected healthz body %v", health)
	}

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS / error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("unexpected preflight response: %d %v", resp.StatusCode, resp.Header)
	}

	resp, err = http.Post(ts.URL+"/", "application/json", bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatalf("POST / error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
