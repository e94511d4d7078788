// Package testutils holds fixtures shared by catalog tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// PostStatusDoc is a markdown definition of WP/POST_STATUS.
const PostStatusDoc = `---
integration_code: WP
condition_code: POST_STATUS
name: Post status
fields: [status]
field_types:
  status: string
---
The post status is {{status}}`

// SetupCatalogRepo initializes a Loam repository in a temp dir and writes files
// (name to content) into it. It returns the absolute dir and the repository.
func SetupCatalogRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	WriteFiles(t, dir, files)
	return dir, repo
}

// WriteFiles writes each name/content pair under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}
