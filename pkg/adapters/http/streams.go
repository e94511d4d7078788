package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
)

// StreamManager handles active SSE connections, keyed by recipe.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[domain.RecipeID]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[domain.RecipeID]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for a recipe. The returned func unsubscribes and
// closes the channel.
func (sm *StreamManager) Subscribe(recipeID domain.RecipeID) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[recipeID]; !ok {
		sm.subscribers[recipeID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[recipeID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[recipeID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, recipeID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of the recipe. Slow clients drop messages.
func (sm *StreamManager) Broadcast(recipeID domain.RecipeID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[recipeID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "recipe_id", recipeID)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every group event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(_ context.Context, ev *domain.GroupEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			sm.logger.Error("SSE: Event encode failed", "err", err)
			return
		}
		sm.Broadcast(ev.RecipeID, string(data))
	}
	return domain.LifecycleHooks{
		OnGroupCreated: publish,
		OnGroupUpdated: publish,
		OnGroupDeleted: publish,
	}
}

// SubscribeEvents handles GET /events (SSE). With ?recipe_id= it streams group
// events of that recipe; without it, catalog reload notifications.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	raw := r.URL.Query().Get("recipe_id")
	if raw == "" {
		s.streamCatalog(w, r, flusher)
		return
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		http.Error(w, fmt.Sprintf("invalid recipe id %q", raw), http.StatusBadRequest)
		return
	}
	recipeID := domain.RecipeID(n)

	ch, cancel := s.Streams.Subscribe(recipeID)
	defer cancel()

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE: Subscribing to recipe events", "recipe_id", recipeID)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "recipe_id", recipeID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) streamCatalog(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
	if s.watcher == nil {
		http.Error(w, "catalog watching is disabled", http.StatusNotFound)
		return
	}
	events, err := s.watcher.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
