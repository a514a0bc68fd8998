package providers

import (
	"context"
	"strings"
	"time"
)

func newDocumentProvider(sim simulator) *ActionSet {
	done := func(m map[string]any) map[string]any {
		m["timestamp"] = sim.now().Format(time.RFC3339)
		return m
	}

	return NewActionSet("Word", map[string]ActionFunc{
		"create_document": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			template := p.String("template", "")
			var tmpl any
			if template != "" {
				tmpl = template
			}
			return done(map[string]any{
				"created":       true,
				"template_used": template != "",
				"template":      tmpl,
				"save_path":     p.String("save_path", sim.stamp("Document", ".docx")),
			}), nil
		},
		"open_document": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return done(map[string]any{"opened": true, "file_path": path, "read_only": p.Bool("read_only", false)}), nil
		},
		"edit_document": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path", "find_text"); err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return done(map[string]any{
				"edited":       true,
				"file_path":    p.String("file_path", ""),
				"find_text":    p.String("find_text", ""),
				"replace_text": p.String("replace_text", ""),
				"saved":        p.Bool("save_changes", true),
			}), nil
		},
		"add_text": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path", "text"); err != nil {
				return nil, err
			}
			formatting := p.Map("formatting")
			if formatting == nil {
				formatting = map[string]any{}
			}
			return done(map[string]any{
				"added":       true,
				"file_path":   p.String("file_path", ""),
				"text_length": len([]rune(p.String("text", ""))),
				"position":    p.String("position", "end"),
				"formatting":  formatting,
				"saved":       p.Bool("save_changes", true),
			}), nil
		},
		"add_table": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			rows, err := p.Int("rows", 3)
			if err != nil {
				return nil, err
			}
			cols, err := p.Int("columns", 3)
			if err != nil {
				return nil, err
			}
			data, _ := p["data"].([]any)
			return done(map[string]any{
				"added":     true,
				"file_path": path,
				"rows":      rows,
				"columns":   cols,
				"data_rows": len(data),
				"position":  p.String("position", "end"),
				"saved":     p.Bool("save_changes", true),
			}), nil
		},
		"add_image": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path", "image_path"); err != nil {
				return nil, err
			}
			return done(map[string]any{
				"added":      true,
				"file_path":  p.String("file_path", ""),
				"image_path": p.String("image_path", ""),
				"position":   p.String("position", "end"),
				"width":      p["width"],
				"height":     p["height"],
				"saved":      p.Bool("save_changes", true),
			}), nil
		},
		"save_document": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			return done(map[string]any{"saved": true, "file_path": path, "save_as_path": p["save_as_path"]}), nil
		},
		"export_pdf": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1.5); err != nil {
				return nil, err
			}
			pdf := p.String("pdf_path", "")
			if pdf == "" {
				pdf = strings.TrimSuffix(path, ".docx") + ".pdf"
			}
			return done(map[string]any{"exported": true, "file_path": path, "pdf_path": pdf}), nil
		},
		"mail_merge": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("template_path", "data_source"); err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 2); err != nil {
				return nil, err
			}
			return done(map[string]any{
				"merged":        true,
				"template_path": p.String("template_path", ""),
				"data_source":   p.String("data_source", ""),
				"output_path":   p["output_path"],
			}), nil
		},
	})
}
