package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

type Dependencies struct {
	Logger     *zap.Logger
	Addr       string
	Registry   *service.DeviceRegistry
	Attendance *service.AttendanceService
	Resolver   *service.SessionResolver
	Billing    *service.BillingNotifier
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	registry   *service.DeviceRegistry
	attendance *service.AttendanceService
	resolver   *service.SessionResolver
	billing    *service.BillingNotifier
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		registry:   d.Registry,
		attendance: d.Attendance,
		resolver:   d.Resolver,
		billing:    d.Billing,
	}

	mux.HandleFunc("POST /v1/devices", s.handleRegisterDevice)
	mux.HandleFunc("GET /v1/devices", s.handleListDevices)
	mux.HandleFunc("GET /v1/devices/{id}", s.handleGetDevice)
	mux.HandleFunc("POST /v1/devices/{id}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("POST /v1/devices/{id}/deactivate", s.handleDeactivateDevice)
	mux.HandleFunc("GET /v1/devices/{id}/status", s.handleDeviceStatus)
	mux.HandleFunc("GET /v1/devices/{id}/events", s.handleDeviceEvents)
	mux.HandleFunc("POST /v1/attendance", s.handleAppendEvent)
	mux.HandleFunc("GET /v1/members/{id}/events", s.handleMemberEvents)
	mux.HandleFunc("GET /v1/members/{id}/presence", s.handleMemberPresence)
	mux.HandleFunc("GET /v1/members/{id}/session", s.handleMemberSession)
	mux.HandleFunc("POST /v1/members/{id}/billing", s.handleBillingChange)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Devices ──────────────────────────────────────────────────────────────────

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterDeviceRequest
	if !s.decode(w, r, &req) {
		return
	}

	device, err := s.registry.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "register device", err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "list devices", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "get device", err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	deviceID := service.NormalizeDeviceID(r.PathValue("id"))
	if err := s.registry.Heartbeat(r.Context(), deviceID); err != nil {
		s.writeServiceError(w, "heartbeat", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"device_id":   deviceID,
		"server_time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleDeactivateDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.Deactivate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "deactivate device", err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := service.NormalizeDeviceID(r.PathValue("id"))
	status, err := s.registry.Status(r.Context(), deviceID)
	if err != nil {
		s.writeServiceError(w, "device status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": deviceID,
		"status":    status,
	})
}

func (s *Server) handleDeviceEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.attendance.RecentForDevice(r.Context(), r.PathValue("id"), limitParam(r))
	if err != nil {
		s.writeServiceError(w, "device events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// ── Attendance ───────────────────────────────────────────────────────────────

func (s *Server) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	var req types.AppendEventRequest
	if !s.decode(w, r, &req) {
		return
	}

	event, err := s.attendance.Append(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "append event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleMemberEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.attendance.RecentForMember(r.Context(), r.PathValue("id"), limitParam(r))
	if err != nil {
		s.writeServiceError(w, "member events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleMemberPresence(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("id")
	presence, err := s.resolver.CurrentStatus(r.Context(), memberID)
	if err != nil {
		s.writeServiceError(w, "member presence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": memberID,
		"status":    presence,
	})
}

func (s *Server) handleMemberSession(w http.ResponseWriter, r *http.Request) {
	checkInRaw := r.URL.Query().Get("check_in")
	if checkInRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_check_in", "check_in query parameter is required")
		return
	}
	checkIn, err := time.Parse(time.RFC3339, checkInRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_check_in", "check_in must be RFC3339")
		return
	}

	memberID := r.PathValue("id")
	minutes, err := s.resolver.SessionDuration(r.Context(), memberID, checkIn.UTC())
	if err != nil {
		s.writeServiceError(w, "member session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": memberID,
		"check_in":  checkIn.UTC().Format(time.RFC3339),
		"minutes":   minutes,
		"formatted": service.FormatDuration(minutes),
	})
}

// ── Billing ──────────────────────────────────────────────────────────────────

type billingChangeRequest struct {
	Status      string `json:"status"` // overdue | suspended | paid
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// handleBillingChange receives billing state changes computed by the outer
// admin application and emits the matching notification command.  The
// gateway call is fire-and-forget, so this always answers 202 once the
// request itself is well-formed.
func (s *Server) handleBillingChange(w http.ResponseWriter, r *http.Request) {
	var req billingChangeRequest
	if !s.decode(w, r, &req) {
		return
	}

	memberID := r.PathValue("id")
	switch req.Status {
	case "overdue":
		s.billing.MemberOverdue(r.Context(), memberID)
	case "suspended":
		s.billing.MemberSuspended(r.Context(), memberID)
	case "paid":
		s.billing.PaymentReceived(r.Context(), memberID, req.AmountCents)
	default:
		writeError(w, http.StatusBadRequest, "validation_error",
			"status must be overdue, suspended or paid")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// ValidationError 400, ConflictError 409, NotFoundError 404, anything
// else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	var (
		validationErr *service.ValidationError
		conflictErr   *service.ConflictError
		notFoundErr   *service.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "conflict", conflictErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	default:
		s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func limitParam(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
