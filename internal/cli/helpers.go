package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/automator/internal/config"
	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the application logger from the log section of the config.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.JSON {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// PrintSystemMessage prints a standardized system message to w.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// DebugHooks logs every committed group change at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, e *domain.GroupEvent) {
		logger.DebugContext(ctx, "Group Event",
			"type", e.Type,
			"recipe_id", e.RecipeID,
			"group_id", e.GroupID,
			"operation", e.Operation,
		)
	}
	return domain.LifecycleHooks{
		OnGroupCreated: log,
		OnGroupUpdated: log,
		OnGroupDeleted: log,
	}
}

// ChainHooks returns hooks that call each of hooks in order.
func ChainHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	fire := func(ctx context.Context, e *domain.GroupEvent) {
		for _, h := range hooks {
			h.Fire(ctx, e)
		}
	}
	return domain.LifecycleHooks{
		OnGroupCreated: fire,
		OnGroupUpdated: fire,
		OnGroupDeleted: fire,
	}
}
