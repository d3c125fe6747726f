package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeCases(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tasks.db"), DemoTasks())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(DemoTasks()),
		"sqlite": sqlite,
	}
}

func TestStoresSeedPerOwner(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			list, err := store.List(ctx, "vendedor-1")
			require.NoError(t, err)
			require.Len(t, list, 5)
			assert.Equal(t, "1", list[0].ID)
			assert.Equal(t, "COT-2023-089", list[0].OrderID)
			assert.Equal(t, TypeQuotation, list[0].Type)
			assert.True(t, list[4].Completed())
		})
	}
}

func TestStoresToggleAndDelete(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			toggled, err := store.Toggle(ctx, "vendedor-1", "2")
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, toggled.Status)

			toggled, err = store.Toggle(ctx, "vendedor-1", "2")
			require.NoError(t, err)
			assert.Equal(t, StatusPending, toggled.Status)

			require.NoError(t, store.Delete(ctx, "vendedor-1", "3"))
			assert.ErrorIs(t, store.Delete(ctx, "vendedor-1", "3"), ErrNotFound)

			list, err := store.List(ctx, "vendedor-1")
			require.NoError(t, err)
			assert.Len(t, list, 4)

			other, err := store.List(ctx, "vendedor-2")
			require.NoError(t, err)
			assert.Len(t, other, 5, "owners are isolated")
		})
	}
}

func TestStoresDoNotReseedEmptiedOwner(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, task := range DemoTasks() {
				require.NoError(t, store.Delete(ctx, "vendedor-9", task.ID))
			}
			list, err := store.List(ctx, "vendedor-9")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStoresCreate(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := store.Create(ctx, "vendedor-1", Task{Description: "Llamar a Aceros del Norte", Client: "Aceros del Norte"})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, PriorityMedium, created.Priority)
			assert.Equal(t, StatusPending, created.Status)

			list, err := store.List(ctx, "vendedor-1")
			require.NoError(t, err)
			require.Len(t, list, 6)
			assert.Equal(t, created.ID, list[5].ID)

			_, err = store.Create(ctx, "vendedor-1", Task{Description: "  "})
			assert.ErrorIs(t, err, ErrInvalidTask)
		})
	}
}

func TestStoresRequireOwner(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.List(context.Background(), " ")
			assert.ErrorIs(t, err, ErrOwnerRequired)
		})
	}
}

func TestPendingAndLimit(t *testing.T) {
	pending := Pending(DemoTasks())
	assert.Len(t, pending, 4)
	assert.Len(t, Limit(pending, 3), 3)
	assert.Len(t, Limit(pending, 0), 4)
	assert.Equal(t, "Alta", pending[0].PriorityLabel())
	assert.Equal(t, "Venta Proactiva", pending[3].TypeLabel())
}
