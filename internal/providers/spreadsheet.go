package providers

import (
	"context"
	"fmt"
	"strings"
)

func newSpreadsheetProvider(sim simulator) *ActionSet {
	return NewActionSet("Excel", map[string]ActionFunc{
		"open": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"opened":    true,
				"file_path": path,
				"sheets":    []any{"Sheet1", "Sheet2", "Summary"},
			}, nil
		},
		"read": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 0.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"file_path": path,
				"sheet":     p.String("sheet", "Sheet1"),
				"range":     p.String("range", "A1:D10"),
				"data": []any{
					[]any{"Product", "Q1", "Q2", "Q3"},
					[]any{"Widgets", 1200, 1350, 1500},
					[]any{"Gadgets", 800, 950, 1100},
				},
			}, nil
		},
		"write": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path", "data"); err != nil {
				return nil, err
			}
			rows, _ := p["data"].([]any)
			if err := sim.wait(ctx, 0.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"written":      true,
				"file_path":    p.String("file_path", ""),
				"sheet":        p.String("sheet", "Sheet1"),
				"start_cell":   p.String("start_cell", "A1"),
				"rows_written": len(rows),
			}, nil
		},
		"create_chart": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path"); err != nil {
				return nil, err
			}
			return map[string]any{
				"created":    true,
				"file_path":  p.String("file_path", ""),
				"sheet":      p.String("sheet", "Sheet1"),
				"data_range": p.String("data_range", "A1:D5"),
				"chart_type": p.String("chart_type", "column"),
				"title":      p.String("title", "Chart"),
			}, nil
		},
		"run_macro": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("file_path", "macro_name"); err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"executed":   true,
				"file_path":  p.String("file_path", ""),
				"macro_name": p.String("macro_name", ""),
			}, nil
		},
		"export": func(ctx context.Context, p Params) (map[string]any, error) {
			path, err := p.Require("file_path")
			if err != nil {
				return nil, err
			}
			format := strings.ToLower(p.String("format", "csv"))
			out := p.String("output_path", "")
			if out == "" {
				out = fmt.Sprintf("%s.%s", strings.TrimSuffix(path, ".xlsx"), format)
			}
			return map[string]any{
				"exported":    true,
				"file_path":   path,
				"format":      format,
				"output_path": out,
			}, nil
		},
	})
}
