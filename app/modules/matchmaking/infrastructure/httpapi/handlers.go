package matchmakinghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakinghandlers "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/handlers"
	matchmakingqueue "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/queue"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// JobInspector exposes the scheduled jobs of a pairing, rematch or invitation.
type JobInspector interface {
	GetScheduledJobs(ctx context.Context, subjectID uuid.UUID) ([]matchmakingqueue.JobInfo, error)
	CancelJobs(ctx context.Context, subjectID uuid.UUID) error
}

// HealthCheck is one named dependency probe for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// AdminHandlers serves the operator API.
type AdminHandlers struct {
	service matchmakingservice.Service
	jobs    JobInspector
	health  []HealthCheck
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAdminHandlers creates the admin HTTP handlers. jobs may be nil when no queue is running.
func NewAdminHandlers(service matchmakingservice.Service, jobs JobInspector, health []HealthCheck, logger *slog.Logger, tracer trace.Tracer) *AdminHandlers {
	return &AdminHandlers{
		service: service,
		jobs:    jobs,
		health:  health,
		logger:  logger,
		tracer:  tracer,
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Check   string   `json:"check,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind matchmakingservice.ErrorKind) int {
	switch kind {
	case matchmakingservice.KindPolicyRejection:
		return http.StatusUnprocessableEntity
	case matchmakingservice.KindNotFound:
		return http.StatusNotFound
	case matchmakingservice.KindConflict:
		return http.StatusConflict
	case matchmakingservice.KindPermissionDenied:
		return http.StatusForbidden
	case matchmakingservice.KindInvalidInput:
		return http.StatusBadRequest
	case matchmakingservice.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure renders a domain failure from a service result.
func writeFailure(w http.ResponseWriter, failure error) {
	kind := matchmakingservice.KindOf(failure)
	body := errorResponse{Error: failure.Error(), Kind: kind.String()}
	var rejection *matchmakingservice.PolicyRejection
	if errors.As(failure, &rejection) {
		body.Check = string(rejection.Check)
		body.Reasons = rejection.Reasons
	}
	writeJSON(w, statusFor(kind), body)
}

// writeError renders an infrastructure error without leaking its text.
func (h *AdminHandlers) writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	h.logger.ErrorContext(ctx, "Admin request failed",
		attr.String("operation", operation),
		attr.ExtractCorrelationID(ctx),
		attr.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func actor(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

func (h *AdminHandlers) span(r *http.Request, name string) (context.Context, trace.Span) {
	return h.tracer.Start(r.Context(), "http."+name)
}

// HandleSweep runs a matchmaking sweep immediately.
func (h *AdminHandlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "sweep")
	defer span.End()

	h.logger.InfoContext(ctx, "Admin triggered sweep", attr.String("actor", actor(r)))

	result, err := h.service.RunMatchmakingSweep(ctx)
	if err != nil {
		h.writeError(ctx, w, "sweep", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, matchmakinghandlers.SweepToV1(*result.Success))
}

// HandleRotate runs the weekly rotation immediately.
func (h *AdminHandlers) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "rotate")
	defer span.End()

	h.logger.InfoContext(ctx, "Admin triggered rotation", attr.String("actor", actor(r)))

	result, err := h.service.RunWeeklyRotation(ctx)
	if err != nil {
		h.writeError(ctx, w, "rotate", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, matchmakinghandlers.RotationToV1(*result.Success))
}

type forcedPairingBody struct {
	CompetitorA   string    `json:"competitor_a"`
	CompetitorB   string    `json:"competitor_b"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	BracketNodeID *string   `json:"bracket_node_id,omitempty"`
}

// HandleCreatePairing creates a forced pairing.
func (h *AdminHandlers) HandleCreatePairing(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "create_pairing")
	defer span.End()

	var body forcedPairingBody
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}

	result, err := h.service.CreateForcedPairing(ctx, matchmakingservice.ForcedPairingRequest{
		AdminID:       actor(r),
		CompetitorA:   body.CompetitorA,
		CompetitorB:   body.CompetitorB,
		ScheduledAt:   body.ScheduledAt,
		BracketNodeID: body.BracketNodeID,
	})
	if err != nil {
		h.writeError(ctx, w, "create_pairing", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	writeJSON(w, http.StatusCreated, matchmakinghandlers.PairingToV1((*result.Success).Pairing))
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// HandleCancelPairing cancels any pairing that is not yet completed.
func (h *AdminHandlers) HandleCancelPairing(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "cancel_pairing")
	defer span.End()

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}
	var body cancelBody
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}

	result, err := h.service.CancelPairing(ctx, matchmakingservice.CancelPairingRequest{
		PairingID:      id,
		ActorID:        actor(r),
		Reason:         body.Reason,
		Administrative: true,
	})
	if err != nil {
		h.writeError(ctx, w, "cancel_pairing", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}

	if h.jobs != nil {
		if err := h.jobs.CancelJobs(ctx, id); err != nil {
			h.logger.WarnContext(ctx, "Failed to cancel expiry jobs for cancelled pairing",
				attr.PairingID(id),
				attr.Error(err),
			)
		}
	}
	writeJSON(w, http.StatusOK, matchmakinghandlers.PairingToV1(*result.Success))
}

type resolveBody struct {
	WinnerID string `json:"winner_id,omitempty"`
	Draw     bool   `json:"draw,omitempty"`
	Method   string `json:"method,omitempty"`
	Void     bool   `json:"void,omitempty"`
	Note     string `json:"note,omitempty"`
}

// HandleResolveDispute settles a disputed pairing.
func (h *AdminHandlers) HandleResolveDispute(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "resolve_dispute")
	defer span.End()

	id, err := pathUUID(r, "pairingID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}
	var body resolveBody
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}

	result, err := h.service.ResolveDispute(ctx, matchmakingservice.ResolveDisputeRequest{
		PairingID:  id,
		ResolvedBy: actor(r),
		WinnerID:   body.WinnerID,
		Draw:       body.Draw,
		Method:     body.Method,
		Void:       body.Void,
		Note:       body.Note,
	})
	if err != nil {
		h.writeError(ctx, w, "resolve_dispute", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}

	resolution := *result.Success
	writeJSON(w, http.StatusOK, matchmakinghandlers.CompletionToV1(resolution.Pairing, resolution.Completion))
}

// HandleActivePairings lists pending and scheduled pairings, optionally for one competitor.
func (h *AdminHandlers) HandleActivePairings(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "active_pairings")
	defer span.End()

	result, err := h.service.ListActivePairings(ctx)
	if err != nil {
		h.writeError(ctx, w, "active_pairings", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}

	pairings := *result.Success
	if competitor := strings.TrimSpace(r.URL.Query().Get("competitor")); competitor != "" {
		filtered := make([]matchmakingdb.Pairing, 0, len(pairings))
		for _, p := range pairings {
			if p.Involves(competitor) {
				filtered = append(filtered, p)
			}
		}
		pairings = filtered
	}
	writeJSON(w, http.StatusOK, matchmakinghandlers.PairingsToV1(pairings))
}

// HandleGetPairing returns one pairing.
func (h *AdminHandlers) HandleGetPairing(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "get_pairing")
	defer span.End()

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}

	result, err := h.service.GetPairing(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "get_pairing", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, matchmakinghandlers.PairingToV1(*result.Success))
}

type disputeView struct {
	ID        uuid.UUID `json:"id"`
	PairingID uuid.UUID `json:"pairing_id"`
	RaisedBy  string    `json:"raised_by"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleOpenDisputes lists disputes awaiting an administrator.
func (h *AdminHandlers) HandleOpenDisputes(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "open_disputes")
	defer span.End()

	result, err := h.service.ListOpenDisputes(ctx)
	if err != nil {
		h.writeError(ctx, w, "open_disputes", err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}

	out := make([]disputeView, 0, len(*result.Success))
	for _, d := range *result.Success {
		out = append(out, disputeView{
			ID:        d.ID,
			PairingID: d.PairingID,
			RaisedBy:  d.RaisedBy,
			Reason:    d.Reason,
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleScheduledJobs lists the queue jobs referencing a subject id.
func (h *AdminHandlers) HandleScheduledJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "scheduled_jobs")
	defer span.End()

	if h.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "job queue is not running"})
		return
	}
	id, err := pathUUID(r, "subjectID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: matchmakingservice.KindInvalidInput.String()})
		return
	}

	jobs, err := h.jobs.GetScheduledJobs(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "scheduled_jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleHealth runs every registered probe.
func (h *AdminHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for _, hc := range h.health {
		if err := hc.Check(ctx); err != nil {
			h.logger.WarnContext(ctx, "Health check failed", attr.String("check", hc.Name), attr.Error(err))
			checks[hc.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}
