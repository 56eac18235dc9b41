package integrations

import (
	"context"
	"fmt"
)

// Category is a capability domain with exactly one active provider.
type Category string

const (
	CategoryAuth     Category = "auth"
	CategoryData     Category = "data"
	CategoryPayments Category = "payments"
	CategoryStorage  Category = "storage"
	CategoryGeo      Category = "geo"
)

// ProviderMock is registered for every category and is always valid.
const ProviderMock = "mock"

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryAuth, CategoryData, CategoryPayments, CategoryStorage, CategoryGeo}
}

// ParseCategory maps a raw name to a Category.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Requirement reports which configuration keys a provider still lacks.
// An empty result means the provider may become active.
type Requirement interface {
	MissingKeys() []string
}

// Factory builds a provider instance. It runs at most once per activation.
type Factory func(ctx context.Context) (any, error)

// Descriptor declares one provider of a category.
type Descriptor struct {
	Name     string
	Label    string
	Requires Requirement
	New      Factory
}

func (d Descriptor) missingKeys() []string {
	if d.Requires == nil {
		return nil
	}
	return d.Requires.MissingKeys()
}

// Catalog maps each category to its providers. It is the only place where
// providers are declared.
type Catalog map[Category][]Descriptor

func (c Catalog) validate() error {
	for cat, descs := range c {
		seen := make(map[string]bool, len(descs))
		for _, d := range descs {
			if d.Name == "" {
				return fmt.Errorf("integrations: %s has a provider without a name", cat)
			}
			if d.New == nil {
				return fmt.Errorf("integrations: %s/%s has no factory", cat, d.Name)
			}
			if seen[d.Name] {
				return fmt.Errorf("integrations: %s/%s registered twice", cat, d.Name)
			}
			seen[d.Name] = true
		}
		if !seen[ProviderMock] {
			return fmt.Errorf("integrations: %s has no %q provider", cat, ProviderMock)
		}
	}
	return nil
}
