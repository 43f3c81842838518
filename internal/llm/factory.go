package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

// Factory builds the matching set of components for one backend so the rest
// of the application stays provider-agnostic.
type Factory interface {
	// Name is the registry key of the backend.
	Name() string

	// PromptFormat returns the backend's wire formatter.
	PromptFormat() conversation.Formatter

	// PromptManager returns the shared template store, loading it from path
	// (or the backend default when empty) on first use.
	PromptManager(path string) (*prompts.Store, error)

	// NewConversation returns an empty conversation.
	NewConversation() *conversation.Conversation

	// NewDisplay returns an empty conversation with a UI projection.
	NewDisplay() *conversation.Display

	// Service returns the generation service.
	Service() Service
}

// Options configures factory construction.
type Options struct {
	// APIKey takes precedence over the environment and the key file.
	APIKey string

	// Model overrides the backend's default model for both modes.
	Model string

	// KeyFile overrides the backend's default key file location.
	KeyFile string

	Logger *zap.Logger
}

// Constructor builds a factory. It resolves credentials eagerly so a missing
// key is reported before any conversation starts.
type Constructor func(ctx context.Context, opts Options) (Factory, error)

// Registry maps backend names to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a backend. Registering a name twice replaces the constructor.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = c
}

// New constructs the named backend.
func (r *Registry) New(ctx context.Context, name string, opts Options) (Factory, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, r.Names())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return c(ctx, opts)
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
