package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails EnsureDefinition for one code and delegates the rest.
type flakyStore struct {
	*MemoryWidgetStore
	failCode string
}

func (s flakyStore) EnsureDefinition(ctx context.Context, def WidgetDefinition) (bool, error) {
	if def.Code == s.failCode {
		return false, errors.New("sqlite: database is locked")
	}
	return s.MemoryWidgetStore.EnsureDefinition(ctx, def)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWidgetStore()
	registry := NewRegistry()
	service := NewService(Options{WidgetStore: store, Providers: registry})

	report, err := Seed(ctx, store, registry, service, true)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{
		Areas:       len(DefaultAreaDefinitions()),
		Definitions: len(DefaultWidgetDefinitions()),
		Widgets:     len(DefaultSeedWidgets()),
	}, report)
	assert.Len(t, registry.Definitions(), len(DefaultWidgetDefinitions()))

	placed := 0
	for _, area := range DefaultAreaDefinitions() {
		resolved, err := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: area.Code})
		require.NoError(t, err)
		placed += len(resolved.Widgets)
	}
	assert.Equal(t, len(DefaultSeedWidgets()), placed)

	again, err := Seed(ctx, store, registry, service, false)
	require.NoError(t, err)
	assert.Zero(t, again, "second run creates nothing")
}

func TestRegisterDefinitionsKeepsGoingAfterFailure(t *testing.T) {
	store := flakyStore{MemoryWidgetStore: NewMemoryWidgetStore(), failCode: WidgetQuoteGoal}

	created, err := RegisterDefinitions(context.Background(), store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), WidgetQuoteGoal)
	assert.Equal(t, len(DefaultWidgetDefinitions())-1, created)
}

func TestBootstrapRequiresCollaborators(t *testing.T) {
	ctx := context.Background()

	_, err := RegisterAreas(ctx, nil)
	assert.ErrorIs(t, err, errMissingWidgetStore)
	_, err = RegisterDefinitions(ctx, nil, nil)
	assert.ErrorIs(t, err, errMissingWidgetStore)
	_, err = SeedLayout(ctx, nil)
	assert.Error(t, err)
}
