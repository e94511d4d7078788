package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/aretw0/automator/pkg/observability"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server exposes the group service over REST.
type Server struct {
	Service *groups.Service
	Catalog ports.ConditionCatalog
	Streams *StreamManager

	version string
	watcher ports.Watchable
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one whose Hooks feed the service.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithWatcher publishes catalog reloads on the global event stream.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the service.
func NewHandler(svc *groups.Service, catalog ports.ConditionCatalog, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Catalog: catalog,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	return enableCORS(s.routes())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", s.GetOpenAPIYAML)
	r.Get("/openapi.json", s.GetOpenAPIJSON)
	r.Get("/swagger", s.GetSwagger)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/conditions", s.ListConditions)
	r.Get("/recipes", s.ListRecipes)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/recipes/{recipeID}", func(r chi.Router) {
		r.Get("/groups", s.ListGroups)
		r.Post("/groups", s.CreateGroup)
		r.Post("/groups/batch", s.CreateGroups)
		r.Delete("/groups", s.DeleteGroups)
		r.Delete("/actions/{actionID}", s.RemoveAction)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", s.GetGroup)
			r.Delete("/", s.DeleteGroup)
			r.Put("/mode", s.UpdateMode)
			r.Put("/priority", s.UpdatePriority)
			r.Put("/actions", s.UpdateActions)
			r.Post("/conditions", s.AddCondition)
			r.Put("/conditions/{conditionID}", s.UpdateCondition)
			r.Delete("/conditions/{conditionID}", s.RemoveCondition)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "automator-http",
		"version": strings.TrimSpace(s.version),
	})
}

// ListConditions handles GET /conditions, the discovery operation.
func (s *Server) ListConditions(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		s.writeJSON(w, http.StatusOK, []domain.ConditionDefinition{})
		return
	}
	defs, err := s.Catalog.ListConditions(r.Context())
	if err != nil {
		s.writeError(w, "ListConditions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, defs)
}

// ListRecipes handles GET /recipes.
func (s *Server) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Recipes(r.Context())
	if err != nil {
		s.writeError(w, "ListRecipes", err)
		return
	}
	if ids == nil {
		ids = []domain.RecipeID{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// ListGroups handles GET /recipes/{recipeID}/groups. With ?sort=priority the groups
// are ordered by ascending priority.
func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	list, err := s.Service.List(r.Context(), recipeID)
	if err != nil {
		s.writeError(w, "ListGroups", err)
		return
	}
	if r.URL.Query().Get("sort") == "priority" {
		list = locator.SortByPriority(list)
	}
	s.writeJSON(w, http.StatusOK, domain.Records(list))
}

// GetGroup handles GET /recipes/{recipeID}/groups/{groupID}.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	g, err := s.Service.Get(r.Context(), recipeID, groupID(r))
	if err != nil {
		s.writeError(w, "GetGroup", err)
		return
	}
	s.writeJSON(w, http.StatusOK, g.Record())
}

// CreateGroup handles POST /recipes/{recipeID}/groups.
func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	var body map[string]any
	if !s.decode(w, r, &body) {
		return
	}
	req, err := groups.DecodeCreateRequest(body)
	if err != nil {
		s.writeError(w, "CreateGroup", err)
		return
	}
	g, err := s.Service.Create(r.Context(), recipeID, req)
	if err != nil {
		s.writeError(w, "CreateGroup", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, g.Record())
}

// CreateGroups handles POST /recipes/{recipeID}/groups/batch with {"groups": [...]}.
func (s *Server) CreateGroups(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	var body struct {
		Groups []any `json:"groups"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	reqs, err := groups.DecodeCreateRequests(body.Groups)
	if err != nil {
		s.writeError(w, "CreateGroups", err)
		return
	}
	created, err := s.Service.CreateBatch(r.Context(), recipeID, reqs)
	if err != nil {
		s.writeError(w, "CreateGroups", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, domain.Records(created))
}

// DeleteGroups handles DELETE /recipes/{recipeID}/groups.
func (s *Server) DeleteGroups(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	if err := s.Service.DeleteAll(r.Context(), recipeID); err != nil {
		s.writeError(w, "DeleteGroups", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroup handles DELETE /recipes/{recipeID}/groups/{groupID}.
func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	if err := s.Service.Delete(r.Context(), recipeID, groupID(r)); err != nil {
		s.writeError(w, "DeleteGroup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateMode handles PUT .../mode with {"mode": "ANY"}.
func (s *Server) UpdateMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	s.update(w, r, "UpdateMode", &body, func(ctx context.Context, recipeID domain.RecipeID, id domain.GroupID) (domain.Group, error) {
		return s.Service.UpdateMode(ctx, recipeID, id, body.Mode)
	})
}

// UpdatePriority handles PUT .../priority with {"priority": 3}.
func (s *Server) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority int `json:"priority"`
	}
	s.update(w, r, "UpdatePriority", &body, func(ctx context.Context, recipeID domain.RecipeID, id domain.GroupID) (domain.Group, error) {
		return s.Service.UpdatePriority(ctx, recipeID, id, body.Priority)
	})
}

// UpdateActions handles PUT .../actions with {"action_ids": [...]}.
func (s *Server) UpdateActions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActionIDs any `json:"action_ids"`
	}
	s.update(w, r, "UpdateActions", &body, func(ctx context.Context, recipeID domain.RecipeID, id domain.GroupID) (domain.Group, error) {
		ids, err := validation.ParseActionIDs(body.ActionIDs)
		if err != nil {
			return domain.Group{}, err
		}
		return s.Service.UpdateActions(ctx, recipeID, id, ids)
	})
}

// AddCondition handles POST .../conditions with a raw condition config.
func (s *Server) AddCondition(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	recipeID, ok := s.recipeID(w, r)
	if !ok || !s.decode(w, r, &body) {
		return
	}
	g, err := s.Service.AddCondition(r.Context(), recipeID, groupID(r), body)
	if err != nil {
		s.writeError(w, "AddCondition", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, g.Record())
}

// UpdateCondition handles PUT .../conditions/{conditionID} with {"fields": {...}}.
func (s *Server) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	s.update(w, r, "UpdateCondition", &body, func(ctx context.Context, recipeID domain.RecipeID, id domain.GroupID) (domain.Group, error) {
		return s.Service.UpdateConditionFields(ctx, recipeID, id, conditionID(r), body.Fields)
	})
}

// RemoveCondition handles DELETE .../conditions/{conditionID}.
func (s *Server) RemoveCondition(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, "RemoveCondition", nil, func(ctx context.Context, recipeID domain.RecipeID, id domain.GroupID) (domain.Group, error) {
		return s.Service.RemoveCondition(ctx, recipeID, id, conditionID(r))
	})
}

// RemoveAction handles DELETE /recipes/{recipeID}/actions/{actionID}, unlinking the
// action from every group.
func (s *Server) RemoveAction(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	actionID, err := validation.ParseActionID(chi.URLParam(r, "actionID"))
	if err != nil {
		s.writeError(w, "RemoveAction", err)
		return
	}
	diff, err := s.Service.RemoveAction(r.Context(), recipeID, actionID)
	if err != nil {
		s.writeError(w, "RemoveAction", err)
		return
	}
	s.writeJSON(w, http.StatusOK, diff)
}

// update decodes body (when non-nil), runs fn on the addressed group and writes it back.
func (s *Server) update(w http.ResponseWriter, r *http.Request, op string, body any, fn func(context.Context, domain.RecipeID, domain.GroupID) (domain.Group, error)) {
	recipeID, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	if body != nil && !s.decode(w, r, body) {
		return
	}
	g, err := fn(r.Context(), recipeID, groupID(r))
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g.Record())
}

// -- Helpers --

func (s *Server) recipeID(w http.ResponseWriter, r *http.Request) (domain.RecipeID, bool) {
	raw := chi.URLParam(r, "recipeID")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		s.writeJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("invalid recipe id %q", raw),
			Kind:  string(observability.KindInvalidRequest),
		})
		return 0, false
	}
	return domain.RecipeID(n), true
}

func groupID(r *http.Request) domain.GroupID {
	return domain.GroupID(chi.URLParam(r, "groupID"))
}

func conditionID(r *http.Request) domain.ConditionID {
	return domain.ConditionID(chi.URLParam(r, "conditionID"))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "invalid request body",
			Kind:  string(observability.KindInvalidRequest),
		})
		return false
	}
	return true
}

type errorBody struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind"`
	Missing []domain.ActionID `json:"missing_action_ids,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind observability.ErrorKind) int {
	switch kind {
	case observability.KindGroupNotFound, observability.KindConditionNotInGroup, observability.KindRecipeNotFound:
		return http.StatusNotFound
	case observability.KindConditionNotFound, observability.KindConditionDefinitionNotFound,
		observability.KindActionsNotInRecipe, observability.KindInvalidFields:
		return http.StatusUnprocessableEntity
	case observability.KindCanceled:
		return 499
	case observability.KindInternal, observability.KindInvalidRecord:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	kind := observability.Classify(err)
	status := statusFor(kind)
	body := errorBody{Error: err.Error(), Kind: string(kind), Missing: domain.MissingActions(err)}
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
		if !errors.Is(err, domain.ErrInvalidRecord) {
			body.Error = "internal error"
		}
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
