package inventory

import (
	"context"
	"strings"
	"time"
)

// AddCategory registers a category name. Adding an existing name is a no-op.
func (l *Ledger) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return l.apply(ctx, "add-category", func(s *State, _ time.Time) error {
		if name == "" {
			return invalid("name", "is required")
		}
		s.registerCategory(name)
		return nil
	})
}

// RemoveCategory unregisters a category. Refused while it holds animals.
func (l *Ledger) RemoveCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return l.apply(ctx, "remove-category", func(s *State, _ time.Time) error {
		if rec, ok := s.Inventory[name]; ok && rec.Total > 0 {
			return &InUseError{Kind: "category", Name: name, Count: rec.Total}
		}
		list, ok := removeString(s.Categories, name)
		if !ok {
			return ErrCategoryNotFound
		}
		s.Categories = list
		return nil
	})
}

// AddProperty registers a farm property (location) name.
func (l *Ledger) AddProperty(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return l.apply(ctx, "add-property", func(s *State, _ time.Time) error {
		if name == "" {
			return invalid("name", "is required")
		}
		if name == Unspecified {
			return invalid("name", "%q is reserved", Unspecified)
		}
		s.registerProperty(name)
		return nil
	})
}

// RemoveProperty unregisters a property. Refused while any category has
// animals there.
func (l *Ledger) RemoveProperty(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return l.apply(ctx, "remove-property", func(s *State, _ time.Time) error {
		count := 0
		for _, rec := range s.Inventory {
			count += rec.Locations[name]
		}
		if count > 0 {
			return &InUseError{Kind: "property", Name: name, Count: count}
		}
		list, ok := removeString(s.Properties, name)
		if !ok {
			return ErrPropertyNotFound
		}
		s.Properties = list
		return nil
	})
}
