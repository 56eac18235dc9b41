// Package integrations keeps one active provider per capability category and
// hands out a lazily built instance of it. A non-mock provider only becomes
// active while every configuration key it requires is present; otherwise the
// category is pinned to mock and the caller gets a warning, never an error.
package integrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Selection is the outcome of SetProvider.
type Selection struct {
	Category    Category `json:"category"`
	Requested   string   `json:"requested"`
	Active      string   `json:"active"`
	Warning     string   `json:"warning,omitempty"`
	MissingKeys []string `json:"missingKeys,omitempty"`
}

// ProviderStatus describes one registered provider.
type ProviderStatus struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Mock        bool     `json:"mock"`
	Configured  bool     `json:"configured"`
	MissingKeys []string `json:"missingKeys,omitempty"`
}

// CategoryStatus is the admin view of a category.
type CategoryStatus struct {
	Category  Category         `json:"category"`
	Active    string           `json:"active"`
	Providers []ProviderStatus `json:"providers"`
}

// slot guards everything known about one category. SetProvider, Provider and
// Instance for a category serialize on mu.
type slot struct {
	mu        sync.Mutex
	providers []Descriptor
	provider  string
	instance  any
}

// Registry is built once at the composition root and injected where needed.
type Registry struct {
	store    SelectionStore
	logger   *zap.Logger
	mockOnly bool
	order    []Category
	slots    map[Category]*slot
}

type Option func(*Registry)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMockOnly pins every category to mock regardless of stored selections.
func WithMockOnly(on bool) Option {
	return func(r *Registry) { r.mockOnly = on }
}

// New builds a registry over catalog. Every category in the catalog must
// declare a mock provider.
func New(catalog Catalog, store SelectionStore, opts ...Option) (*Registry, error) {
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}

	r := &Registry{
		store:  store,
		logger: zap.NewNop(),
		slots:  make(map[Category]*slot, len(catalog)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, cat := range Categories() {
		if descs, ok := catalog[cat]; ok {
			r.order = append(r.order, cat)
			r.slots[cat] = &slot{providers: descs}
		}
	}
	for cat, descs := range catalog {
		if _, ok := r.slots[cat]; !ok {
			r.order = append(r.order, cat)
			r.slots[cat] = &slot{providers: descs}
		}
	}
	return r, nil
}

// Categories returns the categories this registry serves.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.order))
	copy(out, r.order)
	return out
}

// MockOnly reports whether every category is pinned to mock.
func (r *Registry) MockOnly() bool {
	return r.mockOnly
}

// Provider returns the active provider of a category, "mock" if nothing was
// recorded. A recorded provider that has since lost configuration is
// corrected to mock and the correction persisted.
func (r *Registry) Provider(ctx context.Context, category Category) (string, error) {
	s, err := r.slot(category)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.resolveLocked(ctx, category, s)
}

// SetProvider validates the requested provider and then records the final
// selection once. When the provider lacks configuration the category stays
// on mock and the returned Selection carries a warning.
func (r *Registry) SetProvider(ctx context.Context, category Category, name string) (Selection, error) {
	s, err := r.slot(category)
	if err != nil {
		return Selection{}, err
	}
	d, ok := s.descriptor(name)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s/%q", ErrUnknownProvider, category, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Whatever happens next, the cached instance no longer reflects the
	// caller's intent.
	s.provider = ""
	s.instance = nil

	sel := Selection{Category: category, Requested: name, Active: name}
	if r.mockOnly {
		if name != ProviderMock {
			sel.Active = ProviderMock
			sel.Warning = fmt.Sprintf("mock mode is enabled; %s stays on %s", category, ProviderMock)
			r.logger.Warn("Provider switch ignored in mock mode",
				zap.String("category", string(category)),
				zap.String("requested", name))
		}
		return sel, nil
	}

	if missing := d.missingKeys(); len(missing) > 0 {
		sel.Active = ProviderMock
		sel.MissingKeys = missing
		sel.Warning = fmt.Sprintf("%s is missing configuration (%s); %s stays on %s",
			d.label(), strings.Join(missing, ", "), category, ProviderMock)
		r.logger.Warn("Provider not configured, falling back to mock",
			zap.String("category", string(category)),
			zap.String("requested", name),
			zap.Strings("missingKeys", missing))
	}

	if err := r.store.Set(ctx, category, sel.Active); err != nil {
		return Selection{}, fmt.Errorf("integrations: persist %s selection: %w", category, err)
	}
	r.logger.Info("Provider selected",
		zap.String("category", string(category)),
		zap.String("provider", sel.Active))
	return sel, nil
}

// Instance returns the cached instance of the active provider, building it on
// first use. Construction errors are returned and nothing is cached.
func (r *Registry) Instance(ctx context.Context, category Category) (any, error) {
	s, err := r.slot(category)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := r.resolveLocked(ctx, category, s)
	if err != nil {
		return nil, err
	}
	if s.instance != nil && s.provider == name {
		return s.instance, nil
	}

	d, _ := s.descriptor(name)
	inst, err := d.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("integrations: build %s/%s: %w", category, name, err)
	}
	s.provider = name
	s.instance = inst
	r.logger.Debug("Provider instance built",
		zap.String("category", string(category)),
		zap.String("provider", name))
	return inst, nil
}

// Resolve returns the active instance of a category as capability T.
func Resolve[T any](ctx context.Context, r *Registry, category Category) (T, error) {
	var zero T
	inst, err := r.Instance(ctx, category)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s instance is %T", ErrWrongType, category, inst)
	}
	return typed, nil
}

// Status reports the active provider and configuration state of every
// registered provider.
func (r *Registry) Status(ctx context.Context) ([]CategoryStatus, error) {
	out := make([]CategoryStatus, 0, len(r.order))
	for _, cat := range r.order {
		active, err := r.Provider(ctx, cat)
		if err != nil {
			return nil, err
		}
		cs := CategoryStatus{Category: cat, Active: active}
		for _, d := range r.slots[cat].providers {
			missing := d.missingKeys()
			cs.Providers = append(cs.Providers, ProviderStatus{
				Name:        d.Name,
				Label:       d.label(),
				Mock:        d.Name == ProviderMock,
				Configured:  len(missing) == 0,
				MissingKeys: missing,
			})
		}
		out = append(out, cs)
	}
	return out, nil
}

// Close releases every cached instance that implements io.Closer.
func (r *Registry) Close(ctx context.Context) error {
	var errs []error
	for _, cat := range r.order {
		s := r.slots[cat]
		s.mu.Lock()
		if c, ok := s.instance.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s/%s: %w", cat, s.provider, err))
			}
		}
		s.provider = ""
		s.instance = nil
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (r *Registry) slot(category Category) (*slot, error) {
	s, ok := r.slots[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return s, nil
}

// resolveLocked reads the stored selection and corrects it when it no longer
// names a usable provider. The caller holds s.mu.
func (r *Registry) resolveLocked(ctx context.Context, category Category, s *slot) (string, error) {
	if r.mockOnly {
		return ProviderMock, nil
	}

	name, err := r.store.Get(ctx, category)
	if err != nil {
		return "", fmt.Errorf("integrations: read %s selection: %w", category, err)
	}
	if name == "" || name == ProviderMock {
		return ProviderMock, nil
	}

	reason := ""
	if d, ok := s.descriptor(name); !ok {
		reason = "provider no longer registered"
	} else if missing := d.missingKeys(); len(missing) > 0 {
		reason = "missing " + strings.Join(missing, ", ")
	}
	if reason == "" {
		return name, nil
	}

	r.logger.Warn("Stored provider is no longer valid, reverting to mock",
		zap.String("category", string(category)),
		zap.String("provider", name),
		zap.String("reason", reason))
	if err := r.store.Set(ctx, category, ProviderMock); err != nil {
		return "", fmt.Errorf("integrations: correct %s selection: %w", category, err)
	}
	return ProviderMock, nil
}

func (s *slot) descriptor(name string) (Descriptor, bool) {
	for _, d := range s.providers {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (d Descriptor) label() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}
