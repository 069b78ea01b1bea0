package overview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// ErrUnsupportedModule indicates no provider is registered for a module type.
var ErrUnsupportedModule = errors.New("no overview provider registered for module type")

// Provider computes the overview items of one activity for one viewer.
// A nil item with a nil error means the item is not shown to the viewer.
type Provider interface {
	ModuleType() string
	DueDate(ctx context.Context) (*Item, error)
	Actions(ctx context.Context) (*Item, error)
	ExtraItems(ctx context.Context) (*ItemSet, error)
}

// Builder creates the provider for a course module.
type Builder func(ctx context.Context, cm models.CourseModule, viewer Viewer) (Provider, error)

// Factory resolves the provider registered for a course module's type.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory returns a factory with no providers.
func NewFactory() *Factory {
	return &Factory{builders: make(map[string]Builder)}
}

// Register binds a builder to a module type, replacing any previous one.
func (f *Factory) Register(moduleType string, builder Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[moduleType] = builder
}

// Supports reports whether a provider is registered for moduleType.
func (f *Factory) Supports(moduleType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.builders[moduleType]
	return ok
}

// Create returns the provider for cm as seen by viewer.
func (f *Factory) Create(ctx context.Context, cm models.CourseModule, viewer Viewer) (Provider, error) {
	f.mu.RLock()
	builder, ok := f.builders[cm.ModuleType]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModule, cm.ModuleType)
	}
	return builder(ctx, cm, viewer)
}

// Collect gathers every item of a provider: due date, extra items, then actions.
func Collect(ctx context.Context, provider Provider) (*ItemSet, error) {
	set := NewItemSet()

	due, err := provider.DueDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("due date overview: %w", err)
	}
	set.Add(due)

	extra, err := provider.ExtraItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("extra overview items: %w", err)
	}
	for _, item := range extra.Items() {
		item := item
		set.Add(&item)
	}

	actions, err := provider.Actions(ctx)
	if err != nil {
		return nil, fmt.Errorf("actions overview: %w", err)
	}
	set.Add(actions)

	return set, nil
}
