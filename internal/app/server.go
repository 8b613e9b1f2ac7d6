package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mhi-server/internal/auth"
	"github.com/sha1n/mhi-server/internal/config"
	"github.com/sha1n/mhi-server/internal/corpus"
	mcputil "github.com/sha1n/mhi-server/internal/mcp"
	"github.com/sha1n/mhi-server/internal/response"
)

// Route paths of the content server.
const (
	FileRoutePrefix = "/sh/i/mh/up/appli_904i/"
	CompatPath      = "/sreg/imh_sreg.php"
	AccessCheckPath = "/ac_check"
	InfoPath        = "/info.txt"
	HealthPath      = "/health"
	AdminPath       = "/admin/sse"
)

// ShutdownTimeout bounds how long open connections may drain on shutdown.
const ShutdownTimeout = 5 * time.Second

// contentHandler serves the legacy client endpoints from a loaded corpus.
type contentHandler struct {
	corpus *corpus.Corpus
}

// NewHandler builds the request router. adminServer may be nil, in which
// case /admin/sse is not mounted.
func NewHandler(c *corpus.Corpus, settings *config.Settings, adminServer *mcp.Server) (http.Handler, error) {
	if c == nil {
		return nil, errors.New("corpus cannot be nil")
	}
	h := &contentHandler{corpus: c}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET "+FileRoutePrefix+"{pc}/{filename}", h.serveFile)
	mux.HandleFunc("GET "+CompatPath, h.serveCompat)
	mux.HandleFunc("GET "+AccessCheckPath, func(w http.ResponseWriter, r *http.Request) {
		response.Text(w, "1")
	})
	mux.HandleFunc("GET "+InfoPath, func(w http.ResponseWriter, r *http.Request) {
		response.Text(w, "OK")
	})
	mux.HandleFunc("GET /", h.serveUnknown)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Rejected request", "method", r.Method, "path", r.URL.Path)
		response.NotImplemented(w)
	})

	if adminServer != nil {
		admin, err := auth.Wrap(settings.Auth, mcputil.NewSSEHandler(adminServer))
		if err != nil {
			return nil, fmt.Errorf("failed to create auth middleware: %w", err)
		}
		mux.Handle("GET "+AdminPath, admin)
		mux.Handle("POST "+AdminPath, admin)
	}

	return mux, nil
}

// NewHTTPServer creates the HTTP server for the configured address
func NewHTTPServer(c *corpus.Corpus, settings *config.Settings, adminServer *mcp.Server) (*http.Server, error) {
	handler, err := NewHandler(c, settings, adminServer)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              net.JoinHostPort(settings.Server.Host, strconv.Itoa(settings.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// StartHTTPServer serves until ctx is cancelled, then shuts srv down gracefully.
func StartHTTPServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening (HTTP)", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// SSE sessions stay open until their clients leave
		_ = srv.Close()
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}
	return nil
}

func (h *contentHandler) serveFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	slog.Info("Requested file", "pc", r.PathValue("pc"), "filename", filename)

	out := h.corpus.Resolve(filename)
	switch out.Kind {
	case corpus.ExactHit:
		slog.Info("Serving exact match", "filename", out.Filename)
		response.File(w, out.Data)
	case corpus.PlaceholderHit:
		slog.Info("Serving placeholder", "requested", filename, "filename", out.Filename)
		response.File(w, out.Data)
	default:
		slog.Info("File not found", "filename", filename)
		response.EmptyOK(w)
	}
}

func (h *contentHandler) serveCompat(w http.ResponseWriter, r *http.Request) {
	response.Compat(w, r.URL.Query().Get("ty"))
}

func (h *contentHandler) serveUnknown(w http.ResponseWriter, r *http.Request) {
	slog.Info("Unknown GET", "path", r.URL.Path)
	response.EmptyOK(w)
}
