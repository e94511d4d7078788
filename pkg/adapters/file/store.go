// Package file provides a GroupStore that keeps each recipe as a JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
)

// DefaultDir is used when New is given an empty path.
const DefaultDir = ".automator/groups"

const ext = ".json"

// Store implements ports.GroupStore with one <recipe>.json file per recipe.
// Writes go through a temp file and a rename so readers never see a partial document.
type Store struct {
	BasePath string

	mu sync.RWMutex
}

// New creates a file store rooted at basePath.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(recipeID domain.RecipeID) string {
	return filepath.Join(s.BasePath, recipeID.String()+ext)
}

// Save writes the collection atomically.
func (s *Store) Save(ctx context.Context, recipeID domain.RecipeID, groups []domain.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(domain.Records(groups), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal groups: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, recipeID.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(recipeID)
	if _, err := os.Stat(dest); err == nil {
		// os.Rename does not replace an existing file on Windows.
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace recipe file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the collection. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context, recipeID domain.RecipeID) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(recipeID))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Group{}, nil
		}
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var records []domain.GroupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: recipe %d: %w", domain.ErrInvalidRecord, recipeID, err)
	}
	groups, err := domain.GroupsFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, err)
	}
	return groups, nil
}

// Delete removes the recipe file. Deleting an unknown recipe is not an error.
func (s *Store) Delete(ctx context.Context, recipeID domain.RecipeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(recipeID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete recipe file: %w", err)
	}
	return nil
}

// List returns the recipes with a file on disk, ascending. Unrelated files are ignored.
func (s *Store) List(ctx context.Context) ([]domain.RecipeID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries, err := os.ReadDir(s.BasePath)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.RecipeID{}, nil
		}
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]domain.RecipeID, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(name, ext), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		recipes = append(recipes, domain.RecipeID(n))
	}
	slices.Sort(recipes)
	return recipes, nil
}
