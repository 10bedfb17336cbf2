// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"

	"calorie-scan/internal/analyzer"
	"calorie-scan/internal/config"
	"calorie-scan/internal/history"
	"calorie-scan/internal/session"
	"calorie-scan/internal/storage"
)

const (
	ServerName    = "calorie-scan"
	ServerVersion = "1.0.0"
)

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type CalorieServer struct {
	server     *server.Server
	httpServer *http.Server
	store      storage.KV
	history    *history.Store
	session    *session.Controller
	tools      map[string]toolHandler
	config     *config.Config
}

func NewCalorieServer(cfg *config.Config) (*CalorieServer, error) {
	kv, err := storage.NewByEngine(cfg.Storage.Engine, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	calServer := &CalorieServer{
		store: kv,
		history: history.NewStore(kv,
			history.WithKey(cfg.History.Key),
			history.WithCapacity(cfg.History.Capacity),
		),
		session: session.NewController(NewAnalyzer(cfg.Analysis)),
		config:  cfg,
	}

	// Create MCP server (without transport, we'll handle HTTP manually)
	mcpServer, err := server.NewServer(
		nil,
		server.WithServerInfo(protocol.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}),
	)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	calServer.server = mcpServer

	calServer.registerTools()

	calServer.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           calServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return calServer, nil
}

// NewAnalyzer builds the simulator described by cfg. A zero seed keeps the
// simulator's clock-seeded source.
func NewAnalyzer(cfg config.AnalysisConfig) *analyzer.Simulator {
	opts := []analyzer.Option{analyzer.WithDelay(cfg.MinDelay(), cfg.MaxDelay())}
	if cfg.Seed != 0 {
		opts = append(opts, analyzer.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	return analyzer.NewSimulator(opts...)
}

// Handler returns the routed, middleware-wrapped HTTP handler.
func (s *CalorieServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("/", s.handleHTTP)
	return withRequestLogging(withCORS(mux))
}

func (s *CalorieServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *CalorieServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tool: %s", request.Name))
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		log.Printf("tool %s failed: %v", request.Name, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParams), errors.Is(err, session.ErrImageRequired):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrAnalysisInFlight),
		errors.Is(err, errNothingToSave):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *CalorieServer) Start(ctx context.Context) error {
	log.Printf("Starting calorie scan server on %s (store=%s)", s.httpServer.Addr, s.config.Storage.Engine)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down, then waits for any running analysis and
// closes the store.
func (s *CalorieServer) Stop() error {
	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr = s.httpServer.Shutdown(ctx)
	}
	s.session.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}
	return shutdownErr
}

func (s *CalorieServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
