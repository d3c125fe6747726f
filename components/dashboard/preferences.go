package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// PreferenceStore persists the layout choices of each viewer.
type PreferenceStore interface {
	LayoutOverrides(ctx context.Context, viewer ViewerContext) (LayoutOverrides, error)
	SaveLayoutOverrides(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error
}

// LayoutOverrides are the per-viewer adjustments applied on top of the
// stored layout.
type LayoutOverrides struct {
	Locale        string              `json:"locale,omitempty"`
	AreaOrder     map[string][]string `json:"area_order"`
	HiddenWidgets map[string]bool     `json:"hidden_widgets"`
	// TablePageSizes remembers the page size chosen per table code.
	TablePageSizes map[string]int `json:"table_page_sizes,omitempty"`
}

// InMemoryPreferenceStore keeps layout overrides per viewer and locale.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]LayoutOverrides
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]LayoutOverrides),
	}
}

// LayoutOverrides returns stored overrides or defaults. The returned maps are
// copies; callers may mutate them freely.
func (s *InMemoryPreferenceStore) LayoutOverrides(_ context.Context, viewer ViewerContext) (LayoutOverrides, error) {
	empty := LayoutOverrides{Locale: viewer.Locale}
	normalizeOverrides(&empty)
	if viewer.UserID == "" {
		return empty, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	overrides, ok := s.data[s.key(viewer)]
	if !ok {
		return empty, nil
	}
	overrides = cloneOverrides(overrides)
	if overrides.Locale == "" {
		overrides.Locale = viewer.Locale
	}
	return overrides, nil
}

// SaveLayoutOverrides persists overrides for a viewer.
func (s *InMemoryPreferenceStore) SaveLayoutOverrides(_ context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	if overrides.Locale == "" {
		overrides.Locale = viewer.Locale
	}
	overrides = cloneOverrides(overrides)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(viewer)] = overrides
	return nil
}

func (s *InMemoryPreferenceStore) key(viewer ViewerContext) string {
	if viewer.Locale == "" {
		return viewer.UserID
	}
	return viewer.UserID + "::" + viewer.Locale
}

func normalizeOverrides(overrides *LayoutOverrides) {
	if overrides.AreaOrder == nil {
		overrides.AreaOrder = map[string][]string{}
	}
	if overrides.HiddenWidgets == nil {
		overrides.HiddenWidgets = map[string]bool{}
	}
	if overrides.TablePageSizes == nil {
		overrides.TablePageSizes = map[string]int{}
	}
	for code, size := range overrides.TablePageSizes {
		if size <= 0 {
			delete(overrides.TablePageSizes, code)
		}
	}
}

func cloneOverrides(in LayoutOverrides) LayoutOverrides {
	out := LayoutOverrides{
		Locale:         in.Locale,
		AreaOrder:      make(map[string][]string, len(in.AreaOrder)),
		HiddenWidgets:  make(map[string]bool, len(in.HiddenWidgets)),
		TablePageSizes: make(map[string]int, len(in.TablePageSizes)),
	}
	for area, ids := range in.AreaOrder {
		out.AreaOrder[area] = append([]string(nil), ids...)
	}
	for id, hidden := range in.HiddenWidgets {
		out.HiddenWidgets[id] = hidden
	}
	for code, size := range in.TablePageSizes {
		out.TablePageSizes[code] = size
	}
	normalizeOverrides(&out)
	return out
}

// Arrange drops the widgets the viewer hid and puts the rest in the viewer's
// order for area. Widgets missing from the saved order keep their relative
// position after the ordered ones.
func (o LayoutOverrides) Arrange(area string, widgets []WidgetInstance) []WidgetInstance {
	visible := slices.DeleteFunc(slices.Clone(widgets), func(w WidgetInstance) bool {
		return o.HiddenWidgets[w.ID]
	})
	order := o.AreaOrder[area]
	if len(order) == 0 {
		return visible
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	slices.SortStableFunc(visible, func(a, b WidgetInstance) int {
		ra, okA := rank[a.ID]
		rb, okB := rank[b.ID]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return visible
}
