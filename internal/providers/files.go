package providers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileProvider performs file operations on an afero filesystem. Paths are
// resolved against the filesystem root; with a BasePathFs nothing outside the
// sandbox is reachable.
type FileProvider struct {
	*ActionSet
	fs afero.Fs
}

// NewFileProvider returns a provider over fs. When root is non-empty, fs is
// confined to root.
func NewFileProvider(fs afero.Fs, root string) *FileProvider {
	if root != "" {
		fs = afero.NewBasePathFs(fs, root)
	}
	f := &FileProvider{fs: fs}
	f.ActionSet = NewActionSet("file", map[string]ActionFunc{
		"list_files":     f.listFiles,
		"search_files":   f.searchFiles,
		"organize_files": f.organizeFiles,
		"rename_files":   f.renameFiles,
		"move_files":     f.moveFiles,
		"copy_files":     f.copyFiles,
		"delete_files":   f.deleteFiles,
		"read_file":      f.readFile,
		"write_file":     f.writeFile,
	})
	return f
}

func (f *FileProvider) Fs() afero.Fs {
	return f.fs
}

func resolve(p string) string {
	if p == "" {
		p = "."
	}
	return filepath.Clean(string(filepath.Separator) + p)
}

func fileInfo(path string, info os.FileInfo) map[string]any {
	return map[string]any{
		"name":     info.Name(),
		"path":     path,
		"size":     info.Size(),
		"modified": info.ModTime().Format("2006-01-02T15:04:05"),
	}
}

// matchingFiles lists regular files directly under dir whose name matches pattern.
func (f *FileProvider) matchingFiles(dir, pattern string) ([]os.FileInfo, error) {
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, service.NewError(service.InvalidParameter, "Invalid file pattern %q", pattern)
	}
	entries, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %s", dir)
	}
	var out []os.FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *FileProvider) listFiles(ctx context.Context, p Params) (map[string]any, error) {
	directory := p.String("directory", ".")
	recursive := p.Bool("recursive", false)
	types := p.Strings("file_types")
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[strings.ToLower(t)] = true
	}
	keep := func(name string) bool {
		return len(wanted) == 0 || wanted[strings.ToLower(filepath.Ext(name))]
	}

	root := resolve(directory)
	files := []any{}
	if recursive {
		err := afero.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && keep(info.Name()) {
				files = append(files, fileInfo(path, info))
			}
			return ctx.Err()
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cannot list %s", directory)
		}
	} else {
		entries, err := afero.ReadDir(f.fs, root)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot list %s", directory)
		}
		for _, e := range entries {
			if !e.IsDir() && keep(e.Name()) {
				files = append(files, fileInfo(filepath.Join(root, e.Name()), e))
			}
		}
	}
	return map[string]any{
		"directory":  directory,
		"recursive":  recursive,
		"file_types": types,
		"file_count": len(files),
		"files":      files,
	}, nil
}

func (f *FileProvider) searchFiles(ctx context.Context, p Params) (map[string]any, error) {
	pattern, err := p.Require("pattern")
	if err != nil {
		return nil, err
	}
	directory := p.String("directory", ".")
	contentSearch := p.Bool("content_search", false)
	caseSensitive := p.Bool("case_sensitive", false)
	norm := func(s string) string {
		if caseSensitive {
			return s
		}
		return strings.ToLower(s)
	}

	matches := []any{}
	err = afero.Walk(f.fs, resolve(directory), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return ctx.Err()
		}
		if ok, _ := filepath.Match(norm(pattern), norm(info.Name())); ok {
			matches = append(matches, map[string]any{"name": info.Name(), "path": path, "match_type": "filename"})
			return ctx.Err()
		}
		if contentSearch {
			data, readErr := afero.ReadFile(f.fs, path)
			if readErr == nil && strings.Contains(norm(string(data)), norm(pattern)) {
				matches = append(matches, map[string]any{"name": info.Name(), "path": path, "match_type": "content"})
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot search %s", directory)
	}
	return map[string]any{
		"directory":      directory,
		"pattern":        pattern,
		"content_search": contentSearch,
		"case_sensitive": caseSensitive,
		"matches_count":  len(matches),
		"matches":        matches,
	}, nil
}

func (f *FileProvider) organizeFiles(ctx context.Context, p Params) (map[string]any, error) {
	source := p.String("source_directory", ".")
	dest := p.String("destination_directory", source)
	by := p.String("organize_by", "extension")

	var group func(info os.FileInfo) string
	switch by {
	case "extension":
		group = func(info os.FileInfo) string {
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(info.Name())), ".")
			if ext == "" {
				return "no_extension"
			}
			return ext
		}
	case "name":
		group = func(info os.FileInfo) string {
			return strings.ToUpper(info.Name()[:1])
		}
	case "date":
		group = func(info os.FileInfo) string {
			return info.ModTime().Format("2006-01")
		}
	default:
		return nil, service.NewError(service.InvalidParameter, "Unsupported organize_by value: %s", by)
	}

	files, err := f.matchingFiles(resolve(source), "*")
	if err != nil {
		return nil, err
	}
	groups := map[string]any{}
	moved := 0
	for _, info := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := group(info)
		dir := filepath.Join(resolve(dest), name)
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "cannot create %s", dir)
		}
		if err := f.fs.Rename(filepath.Join(resolve(source), info.Name()), filepath.Join(dir, info.Name())); err != nil {
			return nil, errors.Wrapf(err, "cannot move %s", info.Name())
		}
		list, _ := groups[name].([]any)
		groups[name] = append(list, info.Name())
		moved++
	}
	return map[string]any{
		"source_directory":      source,
		"destination_directory": dest,
		"organize_by":           by,
		"files_organized":       moved,
		"groups":                groups,
	}, nil
}

func (f *FileProvider) renameFiles(ctx context.Context, p Params) (map[string]any, error) {
	pattern, err := p.Require("pattern")
	if err != nil {
		return nil, err
	}
	directory := p.String("directory", ".")
	replacement := p.String("replacement", "")
	useRegex := p.Bool("use_regex", false)

	rename := func(name string) string { return strings.ReplaceAll(name, pattern, replacement) }
	if useRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, service.NewError(service.InvalidParameter, "Invalid regular expression %q: %v", pattern, err)
		}
		rename = func(name string) string { return re.ReplaceAllString(name, replacement) }
	}

	dir := resolve(directory)
	files, err := f.matchingFiles(dir, "*")
	if err != nil {
		return nil, err
	}
	renamed := []any{}
	for _, info := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		newName := rename(info.Name())
		if newName == info.Name() || newName == "" {
			continue
		}
		if err := f.fs.Rename(filepath.Join(dir, info.Name()), filepath.Join(dir, newName)); err != nil {
			return nil, errors.Wrapf(err, "cannot rename %s", info.Name())
		}
		renamed = append(renamed, map[string]any{"old_name": info.Name(), "new_name": newName})
	}
	return map[string]any{
		"directory":     directory,
		"pattern":       pattern,
		"replacement":   replacement,
		"use_regex":     useRegex,
		"renamed_count": len(renamed),
		"renamed_files": renamed,
	}, nil
}

func (f *FileProvider) moveFiles(ctx context.Context, p Params) (map[string]any, error) {
	return f.transfer(ctx, p, "moved", func(src, dst string) error {
		return f.fs.Rename(src, dst)
	})
}

func (f *FileProvider) copyFiles(ctx context.Context, p Params) (map[string]any, error) {
	return f.transfer(ctx, p, "copied", func(src, dst string) error {
		data, err := afero.ReadFile(f.fs, src)
		if err != nil {
			return err
		}
		return afero.WriteFile(f.fs, dst, data, 0o644)
	})
}

func (f *FileProvider) transfer(ctx context.Context, p Params, verb string, op func(src, dst string) error) (map[string]any, error) {
	dest, err := p.Require("destination_directory")
	if err != nil {
		return nil, err
	}
	source := p.String("source_directory", ".")
	pattern := p.String("file_pattern", "*")

	files, err := f.matchingFiles(resolve(source), pattern)
	if err != nil {
		return nil, err
	}
	if err := f.fs.MkdirAll(resolve(dest), 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", dest)
	}
	done := []any{}
	for _, info := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := filepath.Join(resolve(source), info.Name())
		dst := filepath.Join(resolve(dest), info.Name())
		if err := op(src, dst); err != nil {
			return nil, errors.Wrapf(err, "cannot transfer %s", info.Name())
		}
		done = append(done, info.Name())
	}
	return map[string]any{
		"source_directory":      source,
		"destination_directory": dest,
		"file_pattern":          pattern,
		verb + "_count":         len(done),
		verb + "_files":         done,
	}, nil
}

func (f *FileProvider) deleteFiles(ctx context.Context, p Params) (map[string]any, error) {
	directory := p.String("directory", ".")
	pattern := p.String("file_pattern", "*")
	dir := resolve(directory)

	files, err := f.matchingFiles(dir, pattern)
	if err != nil {
		return nil, err
	}
	deleted := []any{}
	for _, info := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.fs.Remove(filepath.Join(dir, info.Name())); err != nil {
			return nil, errors.Wrapf(err, "cannot delete %s", info.Name())
		}
		deleted = append(deleted, info.Name())
	}
	return map[string]any{
		"directory":     directory,
		"file_pattern":  pattern,
		"deleted_count": len(deleted),
		"deleted_files": deleted,
	}, nil
}

func (f *FileProvider) readFile(ctx context.Context, p Params) (map[string]any, error) {
	path, err := p.Require("file_path")
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, resolve(path))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	return map[string]any{
		"file_path": path,
		"content":   string(data),
		"size":      len(data),
	}, nil
}

// writeFile writes "content", or the previous step's result as JSON when no
// content is given.
func (f *FileProvider) writeFile(ctx context.Context, p Params) (map[string]any, error) {
	path, err := p.Require("file_path")
	if err != nil {
		return nil, err
	}
	var data []byte
	if content, ok := p["content"].(string); ok {
		data = []byte(content)
	} else if prev, ok := p[models.PreviousResultKey]; ok {
		data, err = json.MarshalIndent(prev, "", "  ")
		if err != nil {
			return nil, service.WrapError(service.InvalidParameter, err, "previous_result is not serialisable")
		}
	} else {
		return nil, service.NewError(service.MissingParameter, "Missing required parameter: content")
	}

	target := resolve(path)
	if err := f.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create directory for %s", path)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	appendMode := p.Bool("append", false)
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := f.fs.OpenFile(target, flags, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	n, err := file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot write %s", path)
	}
	return map[string]any{
		"file_path":     path,
		"bytes_written": n,
		"append":        appendMode,
	}, nil
}

