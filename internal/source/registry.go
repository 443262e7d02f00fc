package source

import (
	"fmt"
	"log/slog"
	"net/http"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

// FactoryDeps carries shared collaborators into adapter constructors.
type FactoryDeps struct {
	Client *http.Client
	Logger *slog.Logger
}

// Factory builds one adapter from its config entry.
type Factory func(cfg config.SourceConfig, deps FactoryDeps) (ports.SourceAdapter, error)

// Builder keeps a mapping from adapter kinds to their factories.
type Builder struct {
	factories map[string]Factory
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{factories: map[string]Factory{}}
}

// Register adds or replaces a factory for the given kind.
func (b *Builder) Register(kind string, factory Factory) {
	if b.factories == nil {
		b.factories = map[string]Factory{}
	}
	b.factories[kind] = factory
}

// Registration pairs a built adapter with the category its items carry.
// The order of registrations fixes the coordinator's merge order.
type Registration struct {
	Name     string
	Category domain.Category
	Adapter  ports.SourceAdapter
}

// Build resolves each configured source to its factory, preserving config
// order. An unknown kind or category is a configuration error.
func (b *Builder) Build(sources []config.SourceConfig, deps FactoryDeps) ([]Registration, error) {
	regs := make([]Registration, 0, len(sources))
	for _, src := range sources {
		factory, ok := b.factories[src.Kind]
		if !ok {
			return nil, fmt.Errorf("source %s: kind %s is not registered", src.Name, src.Kind)
		}

		category, err := parseCategory(src.Category)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		adapter, err := factory(src, deps)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		regs = append(regs, Registration{
			Name:     src.Name,
			Category: category,
			Adapter:  adapter,
		})
	}
	return regs, nil
}

func parseCategory(raw string) (domain.Category, error) {
	switch domain.Category(raw) {
	case domain.CategoryPaper, domain.CategoryModelRelease, domain.CategoryTool,
		domain.CategoryDiscussion, domain.CategoryNews, domain.CategoryBlog:
		return domain.Category(raw), nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}
