package ctlapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/plexsphere/wgsession/internal/notify"
	"github.com/plexsphere/wgsession/internal/session"
	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

// maxBodySize bounds request bodies on mutating routes.
const maxBodySize = 64 * 1024

// Session is the control surface the handler drives.
type Session interface {
	IsReady(ctx context.Context) bool
	RequestReadiness(ctx context.Context) error
	State() session.State
	Registry() *session.Registry
	Start(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (*session.Request, error)
	Reconfigure(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (*session.Request, error)
	Stop() (*session.Request, error)
}

// ActionTrigger runs indicator actions.
type ActionTrigger interface {
	Trigger(id string) error
}

// StartRequest is the body of the start and reconfigure routes.
type StartRequest struct {
	Config       tunnelconfig.Fields `json:"config"`
	ExcludedApps []string            `json:"excluded_apps,omitempty"`
}

// SessionStatus is the response for GET /v1/session.
type SessionStatus struct {
	State      string       `json:"state"`
	TunnelID   string       `json:"tunnel_id"`
	TunnelName string       `json:"tunnel_name"`
	Ready      bool         `json:"ready"`
	LastEvent  notify.Event `json:"last_event"`

	// Subscribers counts open event streams; DroppedEvents counts
	// deliveries skipped because a stream fell behind.
	Subscribers   int    `json:"subscribers"`
	DroppedEvents uint64 `json:"dropped_events"`
}

// OpResponse is returned by the lifecycle routes.
type OpResponse struct {
	Op       string `json:"op"`
	Queued   bool   `json:"queued,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	TunnelID string `json:"tunnel_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ReadinessStatus is returned by the readiness routes.
type ReadinessStatus struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error    string                    `json:"error"`
	Problems []tunnelconfig.FieldError `json:"problems,omitempty"`
}

// Handler provides HTTP handlers for the control socket.
type Handler struct {
	session     Session
	broadcaster *notify.Broadcaster
	actions     ActionTrigger
	metrics     http.Handler
	keepAlive   time.Duration
	logger      *slog.Logger
}

// NewHandler creates a new Handler. metrics may be nil, in which case
// /metrics is not served.
func NewHandler(sess Session, broadcaster *notify.Broadcaster, actions ActionTrigger, metrics http.Handler, keepAlive time.Duration, logger *slog.Logger) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Handler{
		session:     sess,
		broadcaster: broadcaster,
		actions:     actions,
		metrics:     metrics,
		keepAlive:   keepAlive,
		logger:      logger.With("component", "ctlapi"),
	}
}

// Mux returns a configured ServeMux with all control routes.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/session", h.handleGetSession)
	mux.HandleFunc("POST /v1/session/start", h.handleStart)
	mux.HandleFunc("POST /v1/session/stop", h.handleStop)
	mux.HandleFunc("POST /v1/session/reconfigure", h.handleReconfigure)
	mux.HandleFunc("GET /v1/readiness", h.handleGetReadiness)
	mux.HandleFunc("POST /v1/readiness", h.handleRequestReadiness)
	mux.HandleFunc("GET /v1/events", h.handleEvents)
	mux.HandleFunc("POST /v1/indicator/actions/{id}", h.handleAction)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	return mux
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	handle := h.session.Registry().Handle()
	writeJSON(w, http.StatusOK, SessionStatus{
		State:      h.session.State().String(),
		TunnelID:   handle.ID(),
		TunnelName: handle.Name(),
		Ready:      h.session.IsReady(r.Context()),
		LastEvent:  h.broadcaster.Last(),

		Subscribers:   h.broadcaster.Subscribers(),
		DroppedEvents: h.broadcaster.Dropped(),
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.launch(w, r, session.OpStart)
}

func (h *Handler) handleReconfigure(w http.ResponseWriter, r *http.Request) {
	h.launch(w, r, session.OpReconfigure)
}

func (h *Handler) launch(w http.ResponseWriter, r *http.Request, op session.Op) {
	var req StartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := tunnelconfig.New(req.Config)
	if err != nil {
		h.writeOpError(w, op, err)
		return
	}

	var pending *session.Request
	if op == session.OpReconfigure {
		pending, err = h.session.Reconfigure(r.Context(), cfg, req.ExcludedApps)
	} else {
		pending, err = h.session.Start(r.Context(), cfg, req.ExcludedApps)
	}
	if err != nil {
		h.writeOpError(w, op, err)
		return
	}
	h.respond(w, r, pending)
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	pending, err := h.session.Stop()
	if err != nil {
		h.writeOpError(w, session.OpStop, err)
		return
	}
	h.respond(w, r, pending)
}

// respond answers 202 right away, or waits for the request to finish when
// the caller passed wait=true.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, pending *session.Request) {
	if !wantWait(r) {
		writeJSON(w, http.StatusAccepted, OpResponse{Op: string(pending.Op()), Queued: true})
		return
	}

	res, err := pending.Wait(r.Context())
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, "request still pending: "+err.Error())
		return
	}

	resp := OpResponse{Op: string(res.Op)}
	if res.Start.Outcome != 0 {
		resp.Outcome = res.Start.Outcome.String()
		resp.TunnelID = res.Start.TunnelID
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		writeJSON(w, statusFor(res.Err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeOpError(w http.ResponseWriter, op session.Op, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("lifecycle request rejected", "op", op, "error", err)
	}
	resp := ErrorResponse{Error: err.Error()}
	var ve *tunnelconfig.ValidationError
	if errors.As(err, &ve) {
		resp.Problems = ve.Problems
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleGetReadiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ReadinessStatus{Ready: h.session.IsReady(r.Context())})
}

func (h *Handler) handleRequestReadiness(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RequestReadiness(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessStatus{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ReadinessStatus{Ready: h.session.IsReady(r.Context())})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.actions.Trigger(id); err != nil {
		if errors.Is(err, notify.ErrUnknownAction) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"action": id})
}

// statusFor maps control-surface errors to HTTP status codes.
func statusFor(err error) int {
	var opErr *session.BackendOperationError
	switch {
	case errors.Is(err, tunnelconfig.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrManagerClosed),
		errors.Is(err, session.ErrUninitializedBackend):
		return http.StatusServiceUnavailable
	case errors.As(err, &opErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func wantWait(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("wait"))
	return err == nil && v
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
