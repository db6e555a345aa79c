package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add cashbox notes", "add_cashbox_notes"},
		{"Add-Cashbox-Notes", "add_cashbox_notes"},
		{"ADD__DEBT__INDEX", "add_debt_index"},
		{"index 2", "index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := CreateMigration(dir, "init schema", "Initial tables", now)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_init_schema.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_init_schema.down.sql", filepath.Base(first.DownPath))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: init_schema")
	assert.Contains(t, string(up), "Initial tables")
	assert.Contains(t, string(up), "2024-03-01T10:00:00Z")

	second, err := CreateMigration(dir, "Add debt index", "", now)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_add_debt_index.up.sql", filepath.Base(second.UpPath))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "", time.Now())
	require.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("orders by version and pairs files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_later.up.sql",
			"000002_second.up.sql",
			"000002_second.down.sql",
			"000001_first.up.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		list, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, Listed{Version: 1, Name: "first"}, list[0])
		assert.Equal(t, Listed{Version: 2, Name: "second", HasDown: true}, list[1])
		assert.Equal(t, uint(10), list[2].Version)
	})

	t.Run("embedded schema is well formed", func(t *testing.T) {
		list, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
		require.NoError(t, err)
		require.NotEmpty(t, list)
		for _, l := range list {
			assert.True(t, l.HasDown, "migration %d has no down file", l.Version)
		}
	})
}
