package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"rafcdn/internal/logging"
	"rafcdn/internal/messages"
	"rafcdn/internal/uploads"
)

// WelcomeMessage is posted when the dashboard starts.
const WelcomeMessage = "Welcome to your video upload dashboard!"

// MessageBoard exposes the currently visible message.
type MessageBoard interface {
	Current() (messages.Message, bool)
}

// ViewSource exposes the tracker projection.
type ViewSource interface {
	View() uploads.View
	Stats() uploads.Stats
}

// Server serves the read-only dashboard API.
type Server struct {
	bind     string
	token    string
	username string
	logger   *slog.Logger
	views    ViewSource
	board    MessageBoard

	listener net.Listener
	server   *http.Server
}

// Options configures a Server.
type Options struct {
	Bind     string
	Token    string
	Username string
	Views    ViewSource
	Board    MessageBoard
	Logger   *slog.Logger
}

// UploadsResponse is the payload of GET /api/uploads.
type UploadsResponse struct {
	Username  string            `json:"username,omitempty"`
	Records   []uploads.Record  `json:"records"`
	Stats     uploads.Stats     `json:"stats"`
	Indicator uploads.Indicator `json:"indicator"`
}

// MessageResponse is the payload of GET /api/message.
type MessageResponse struct {
	Kind     messages.Kind `json:"kind"`
	Text     string        `json:"text"`
	PostedAt time.Time     `json:"posted_at"`
}

func NewServer(opts Options) (*Server, error) {
	if opts.Views == nil {
		return nil, errors.New("dashboard: view source is required")
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil, errors.New("dashboard: bind address is required")
	}
	srv := &Server{
		bind:     bind,
		token:    opts.Token,
		username: opts.Username,
		logger:   logging.NewComponentLogger(opts.Logger, "dashboard"),
		views:    opts.Views,
		board:    opts.Board,
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routed API with auth applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/uploads", authMiddleware(s.token, s.handleUploads))
	mux.HandleFunc("/api/stats", authMiddleware(s.token, s.handleStats))
	mux.HandleFunc("/api/message", authMiddleware(s.token, s.handleMessage))
	return mux
}

// Start begins serving until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view := s.views.View()
	records := view.Records
	if records == nil {
		records = []uploads.Record{}
	}
	s.writeJSON(w, http.StatusOK, UploadsResponse{
		Username:  s.username,
		Records:   records,
		Stats:     view.Stats,
		Indicator: view.Indicator,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.views.Stats())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.board == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	msg, ok := s.board.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, MessageResponse{Kind: msg.Kind, Text: msg.Text, PostedAt: msg.PostedAt})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
