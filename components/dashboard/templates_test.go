package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplatesCoverEveryPartial(t *testing.T) {
	root, base, err := templateRoot("")
	require.NoError(t, err)
	assert.Equal(t, "templates", base)
	for _, name := range templateNames {
		_, err := root.Open(base + "/" + name)
		assert.NoError(t, err, name)
	}
}

func TestTemplateDirReportsMissingPartials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateDashboard), []byte("{{ title }}"), 0o644))

	_, _, err := templateRoot(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TemplateDatatable)
	assert.NotContains(t, err.Error(), TemplateDashboard+",")
}

func TestTemplateDirAcceptsCompleteSet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "views")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "widgets"), 0o755))
	for _, name := range templateNames {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("ok"), 0o644))
	}

	_, base, err := templateRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, "views", base)
}
