package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedInstance struct {
	instance   WidgetInstance
	visibility WidgetVisibility
}

// MemoryWidgetStore keeps areas, definitions and instances in process. It
// backs the demo server and tests; go-cms or SQL stores replace it in
// production.
type MemoryWidgetStore struct {
	mu          sync.RWMutex
	areas       map[string]WidgetAreaDefinition
	definitions map[string]WidgetDefinition
	instances   map[string]storedInstance
	assignments map[string][]string
	now         func() time.Time
}

// NewMemoryWidgetStore returns an empty store.
func NewMemoryWidgetStore() *MemoryWidgetStore {
	return &MemoryWidgetStore{
		areas:       map[string]WidgetAreaDefinition{},
		definitions: map[string]WidgetDefinition{},
		instances:   map[string]storedInstance{},
		assignments: map[string][]string{},
		now:         time.Now,
	}
}

var _ WidgetStore = (*MemoryWidgetStore)(nil)

// EnsureArea registers an area; it reports whether the area was new.
func (s *MemoryWidgetStore) EnsureArea(_ context.Context, def WidgetAreaDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.areas[def.Code]
	s.areas[def.Code] = def
	return !exists, nil
}

// EnsureDefinition registers a definition; it reports whether it was new.
func (s *MemoryWidgetStore) EnsureDefinition(_ context.Context, def WidgetDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.definitions[def.Code]
	s.definitions[def.Code] = def
	return !exists, nil
}

// CreateInstance stores a new, unassigned instance.
func (s *MemoryWidgetStore) CreateInstance(_ context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error) {
	if input.DefinitionID == "" {
		return WidgetInstance{}, errInvalidDefinition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	instance := WidgetInstance{
		ID:            uuid.NewString(),
		DefinitionID:  input.DefinitionID,
		Configuration: cloneConfig(input.Configuration),
		Metadata:      cloneConfig(input.Metadata),
	}
	s.instances[instance.ID] = storedInstance{instance: instance, visibility: input.Visibility}
	return instance, nil
}

// GetInstance returns a stored instance.
func (s *MemoryWidgetStore) GetInstance(_ context.Context, instanceID string) (WidgetInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.instances[instanceID]
	if !ok {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, instanceID)
	}
	return stored.instance, nil
}

// UpdateInstance replaces configuration and/or metadata; nil maps are kept.
func (s *MemoryWidgetStore) UpdateInstance(_ context.Context, input UpdateWidgetInstanceInput) (WidgetInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.instances[input.InstanceID]
	if !ok {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, input.InstanceID)
	}
	if input.Configuration != nil {
		stored.instance.Configuration = cloneConfig(input.Configuration)
	}
	if input.Metadata != nil {
		stored.instance.Metadata = cloneConfig(input.Metadata)
	}
	s.instances[input.InstanceID] = stored
	return stored.instance, nil
}

// DeleteInstance removes the instance and its assignments.
func (s *MemoryWidgetStore) DeleteInstance(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[instanceID]; !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, instanceID)
	}
	delete(s.instances, instanceID)
	for area, ids := range s.assignments {
		s.assignments[area] = withoutID(ids, instanceID)
	}
	return nil
}

// AssignInstance places the instance in an area, at Position when given.
func (s *MemoryWidgetStore) AssignInstance(_ context.Context, input AssignWidgetInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.instances[input.InstanceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, input.InstanceID)
	}
	if stored.instance.AreaCode != "" {
		s.assignments[stored.instance.AreaCode] = withoutID(s.assignments[stored.instance.AreaCode], input.InstanceID)
	}
	order := s.assignments[input.AreaCode]
	if input.Position != nil && *input.Position >= 0 && *input.Position <= len(order) {
		idx := *input.Position
		order = append(order[:idx], append([]string{input.InstanceID}, order[idx:]...)...)
	} else {
		order = append(order, input.InstanceID)
	}
	s.assignments[input.AreaCode] = order
	stored.instance.AreaCode = input.AreaCode
	s.instances[input.InstanceID] = stored
	return nil
}

// ReorderArea moves the listed instances to the front of the area in the
// given order; unknown ids are ignored and unlisted ones keep their order.
func (s *MemoryWidgetStore) ReorderArea(_ context.Context, input ReorderAreaInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.assignments[input.AreaCode]
	present := make(map[string]bool, len(current))
	for _, id := range current {
		present[id] = true
	}
	order := make([]string, 0, len(current))
	for _, id := range input.WidgetIDs {
		if present[id] {
			order = append(order, id)
			present[id] = false
		}
	}
	for _, id := range current {
		if present[id] {
			order = append(order, id)
		}
	}
	s.assignments[input.AreaCode] = order
	return nil
}

// ResolveArea returns the visible instances of an area for the audience.
func (s *MemoryWidgetStore) ResolveArea(_ context.Context, input ResolveAreaInput) (ResolvedArea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	ids := s.assignments[input.AreaCode]
	widgets := make([]WidgetInstance, 0, len(ids))
	for _, id := range ids {
		stored, ok := s.instances[id]
		if !ok || !visibleTo(stored.visibility, input.Audience, now) {
			continue
		}
		widget := stored.instance
		widget.Configuration = cloneConfig(widget.Configuration)
		widget.Metadata = cloneConfig(widget.Metadata)
		widgets = append(widgets, widget)
	}
	return ResolvedArea{AreaCode: input.AreaCode, Widgets: widgets}, nil
}

func visibleTo(v WidgetVisibility, audience []string, now time.Time) bool {
	if v.StartAt != nil && now.Before(*v.StartAt) {
		return false
	}
	if v.EndAt != nil && now.After(*v.EndAt) {
		return false
	}
	if len(v.Roles) == 0 {
		return true
	}
	for _, role := range v.Roles {
		for _, have := range audience {
			if role == have {
				return true
			}
		}
	}
	return false
}

func withoutID(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
