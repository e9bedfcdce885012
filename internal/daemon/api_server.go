package daemon

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

	"coinsort/internal/api"
	"coinsort/internal/config"
	"coinsort/internal/jobs"
	"coinsort/internal/logging"
	"coinsort/internal/queue"
	"coinsort/internal/webhook"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("api server requires a bind address")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", srv.handleWebhook)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/ws", srv.handleWebsocket)

	// No ReadTimeout or WriteTimeout: /ws holds connections open
	// indefinitely.
	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleWebhook receives a transaction-stored notification. A payload that
// fails any validation rule gets the rule's reason back as a plain-text 400;
// an accepted payload creates a job, enqueues its classification, and answers
// "queued" immediately without waiting for processing.
func (s *apiServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := webhook.Decode(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := webhook.Validate(payload)
	if err != nil {
		var verr *webhook.ValidationError
		if errors.As(err, &verr) {
			s.logger.Info("webhook rejected",
				logging.String("rule", verr.Rule),
				logging.String("reason", verr.Reason),
			)
			s.writeText(w, http.StatusBadRequest, verr.Reason)
			return
		}
		s.writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.daemon.registry.Create(jobs.Data{
		DestinationName: item.DestinationName,
		Description:     item.Description,
	})
	task := queue.NewTask("classify", job.ID, func(ctx context.Context) error {
		return s.daemon.processor.Process(ctx, job.ID, item)
	})
	if err := s.daemon.queue.Submit(task); err != nil {
		s.writeText(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeText(w, http.StatusOK, "queued")
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	counts := make(map[string]int, len(status.JobCounts))
	for st, n := range status.JobCounts {
		counts[string(st)] = n
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Bind:         status.Bind,
		LockFilePath: status.LockFilePath,
		QueueDepth:   status.QueueDepth,
		Subscribers:  status.Subscribers,
		JobCounts:    counts,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: s.daemon.registry.Jobs()})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
