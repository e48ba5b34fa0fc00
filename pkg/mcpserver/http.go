package mcpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

const unixPrefix = "unix:"

// HTTPServer serves MCP over streamable HTTP on /mcp together with
// /healthz and a read-only /skills catalog
type HTTPServer struct {
	mcp        *Server
	streamable *server.StreamableHTTPServer
	router     *mux.Router
	listener   net.Listener
	server     *http.Server
	addr       string
	socketPath string
}

// NewHTTPServer listens on addr, which is either host:port or unix:<socket path>
func NewHTTPServer(s *Server, addr string) (*HTTPServer, error) {
	if addr == "" {
		return nil, errors.New("listen address cannot be empty")
	}

	h := &HTTPServer{
		mcp:        s,
		streamable: server.NewStreamableHTTPServer(s.mcpServer),
		router:     mux.NewRouter(),
		addr:       addr,
	}

	listener, err := h.listen()
	if err != nil {
		return nil, err
	}
	h.listener = listener

	h.setupRoutes()
	h.server = &http.Server{
		Handler:           h.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h, nil
}

func (h *HTTPServer) listen() (net.Listener, error) {
	if socketPath, ok := strings.CutPrefix(h.addr, unixPrefix); ok {
		if err := os.RemoveAll(socketPath); err != nil {
			return nil, errors.Wrap(err, "failed to remove existing socket")
		}
		listener, err := net.Listen("unix", socketPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create unix socket listener")
		}
		h.socketPath = socketPath
		return listener, nil
	}

	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", h.addr)
	}
	return listener, nil
}

func (h *HTTPServer) setupRoutes() {
	h.router.Handle("/mcp", h.streamable).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	h.router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	h.router.HandleFunc("/skills", h.handleListSkills).Methods(http.MethodGet)

	h.router.Use(requestIDMiddleware)
	h.router.Use(loggingMiddleware)
}

// Addr returns the address the server is listening on
func (h *HTTPServer) Addr() string {
	return h.listener.Addr().String()
}

// Start serves requests until Shutdown is called
func (h *HTTPServer) Start(ctx context.Context) error {
	logger.G(ctx).WithField("addr", h.Addr()).Info("skills MCP server running via streamable HTTP")
	if err := h.server.Serve(h.listener); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "HTTP transport failed")
	}
	return nil
}

// Shutdown gracefully stops the server and removes the unix socket, if any
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	logger.G(ctx).Info("shutting down skills MCP HTTP server")
	if err := h.streamable.Shutdown(ctx); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to close MCP sessions")
	}
	if err := h.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown HTTP server")
	}
	if h.socketPath != "" {
		if err := os.RemoveAll(h.socketPath); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to remove socket file")
		}
	}
	return nil
}

type healthResponse struct {
	Status    string     `json:"status"`
	Skills    int        `json:"skills"`
	LastScan  *time.Time `json:"lastScan,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Skills: len(h.mcp.store.All()),
	}
	if h.mcp.status != nil {
		status := h.mcp.status()
		if !status.LastScan.IsZero() {
			resp.LastScan = &status.LastScan
		}
		resp.LastError = status.LastError
	}
	writeJSON(r.Context(), w, resp)
}

func (h *HTTPServer) handleListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, h.mcp.store.All())
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode response")
	}
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every request and its logger with a request id
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := logger.WithLogger(r.Context(), logger.G(r.Context()).WithField("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Debug("HTTP request")
	})
}

// responseWriter captures the status code while keeping streaming support
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
