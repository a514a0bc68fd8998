package providers_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Himanshujchavan/GROQPILOT/internal/providers"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestFileProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ListFiles", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/data/a.txt":     "alpha",
			"/data/b.csv":     "1,2",
			"/data/sub/c.txt": "gamma",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "list_files", map[string]any{"directory": "/data"})
		require.NoError(t, err)
		assert.Equal(t, 2, res["file_count"])

		res, err = fp.Execute(ctx, "list_files", map[string]any{"directory": "/data", "recursive": true, "file_types": []any{".txt"}})
		require.NoError(t, err)
		assert.Equal(t, 2, res["file_count"])
	})

	t.Run("ListMissingDirectory", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "list_files", map[string]any{"directory": "/nope"})
		require.Error(t, err)
		assert.Equal(t, service.ExecutionFailed, service.KindOf(err))
	})

	t.Run("SearchByNameAndContent", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/docs/report.txt": "quarterly numbers",
			"/docs/notes.md":   "see the REPORT draft",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "search_files", map[string]any{"directory": "/docs", "pattern": "report*"})
		require.NoError(t, err)
		assert.Equal(t, 1, res["matches_count"])

		res, err = fp.Execute(ctx, "search_files", map[string]any{"directory": "/docs", "pattern": "report", "content_search": true})
		require.NoError(t, err)
		assert.Equal(t, 1, res["matches_count"])
	})

	t.Run("SearchRequiresPattern", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "search_files", map[string]any{})
		require.Error(t, err)
		assert.Equal(t, service.MissingParameter, service.KindOf(err))
		assert.Equal(t, "Missing required parameter: pattern", err.Error())
	})

	t.Run("OrganizeByExtension", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/in/a.txt": "a",
			"/in/b.TXT": "b",
			"/in/c":     "c",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "organize_files", map[string]any{"source_directory": "/in"})
		require.NoError(t, err)
		assert.Equal(t, 3, res["files_organized"])

		ok, err := afero.Exists(fs, "/in/txt/b.TXT")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = afero.Exists(fs, "/in/no_extension/c")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("OrganizeRejectsUnknownMode", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "organize_files", map[string]any{"organize_by": "colour"})
		assert.Equal(t, service.InvalidParameter, service.KindOf(err))
	})

	t.Run("RenameWithRegex", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/r/IMG_001.jpg": "x",
			"/r/IMG_002.jpg": "y",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "rename_files", map[string]any{
			"directory":   "/r",
			"pattern":     `^IMG_(\d+)`,
			"replacement": "photo_$1",
			"use_regex":   true,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, res["renamed_count"])
		ok, _ := afero.Exists(fs, "/r/photo_001.jpg")
		assert.True(t, ok)
	})

	t.Run("RenameRejectsBadRegex", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "rename_files", map[string]any{"pattern": "(", "use_regex": true})
		assert.Equal(t, service.InvalidParameter, service.KindOf(err))
	})

	t.Run("CopyAndMove", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/src/a.log": "a",
			"/src/b.txt": "b",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "copy_files", map[string]any{"source_directory": "/src", "destination_directory": "/backup", "file_pattern": "*.log"})
		require.NoError(t, err)
		assert.Equal(t, 1, res["copied_count"])
		ok, _ := afero.Exists(fs, "/src/a.log")
		assert.True(t, ok)

		res, err = fp.Execute(ctx, "move_files", map[string]any{"source_directory": "/src", "destination_directory": "/archive"})
		require.NoError(t, err)
		assert.Equal(t, 2, res["moved_count"])
		ok, _ = afero.Exists(fs, "/src/a.log")
		assert.False(t, ok)
	})

	t.Run("MoveRequiresDestination", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "move_files", map[string]any{"source_directory": "/src"})
		assert.Equal(t, service.MissingParameter, service.KindOf(err))
	})

	t.Run("DeleteByPattern", func(t *testing.T) {
		fs := seedFs(t, map[string]string{
			"/tmp/a.tmp": "a",
			"/tmp/b.tmp": "b",
			"/tmp/keep":  "k",
		})
		fp := providers.NewFileProvider(fs, "")

		res, err := fp.Execute(ctx, "delete_files", map[string]any{"directory": "/tmp", "file_pattern": "*.tmp"})
		require.NoError(t, err)
		assert.Equal(t, 2, res["deleted_count"])
		ok, _ := afero.Exists(fs, "/tmp/keep")
		assert.True(t, ok)
	})

	t.Run("WriteAndRead", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")

		_, err := fp.Execute(ctx, "write_file", map[string]any{"file_path": "/out/log.txt", "content": "one\n"})
		require.NoError(t, err)
		_, err = fp.Execute(ctx, "write_file", map[string]any{"file_path": "/out/log.txt", "content": "two\n", "append": true})
		require.NoError(t, err)

		res, err := fp.Execute(ctx, "read_file", map[string]any{"file_path": "/out/log.txt"})
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo\n", res["content"])
	})

	t.Run("WritePreviousResult", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		fp := providers.NewFileProvider(fs, "")

		_, err := fp.Execute(ctx, "write_file", map[string]any{
			"file_path":               "/out/prev.json",
			models.PreviousResultKey: map[string]any{"file_count": 3},
		})
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "/out/prev.json")
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, float64(3), decoded["file_count"])
	})

	t.Run("WriteWithoutContent", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "write_file", map[string]any{"file_path": "/x"})
		assert.Equal(t, service.MissingParameter, service.KindOf(err))
	})

	t.Run("SandboxedRoot", func(t *testing.T) {
		base := seedFs(t, map[string]string{
			"/sandbox/inside.txt": "in",
			"/secret.txt":         "out",
		})
		fp := providers.NewFileProvider(base, "/sandbox")

		res, err := fp.Execute(ctx, "read_file", map[string]any{"file_path": "inside.txt"})
		require.NoError(t, err)
		assert.Equal(t, "in", res["content"])

		_, err = fp.Execute(ctx, "read_file", map[string]any{"file_path": "../secret.txt"})
		assert.Error(t, err)
	})

	t.Run("UnsupportedAction", func(t *testing.T) {
		fp := providers.NewFileProvider(afero.NewMemMapFs(), "")
		_, err := fp.Execute(ctx, "shred", nil)
		require.Error(t, err)
		assert.Equal(t, service.UnsupportedAction, service.KindOf(err))
		assert.Equal(t, "Unsupported file action: shred", err.Error())
	})
}
