package providers

import (
	"context"
	"net/url"
)

var searchEngines = map[string]string{
	"google":     "https://www.google.com/search?q=",
	"bing":       "https://www.bing.com/search?q=",
	"duckduckgo": "https://duckduckgo.com/?q=",
}

func newBrowserProvider(sim simulator) *ActionSet {
	return NewActionSet("browser", map[string]ActionFunc{
		"open": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{"opened": true, "browser": p.String("browser", "chrome"), "url": p.String("url", "")}, nil
		},
		"navigate": func(ctx context.Context, p Params) (map[string]any, error) {
			u, err := p.Require("url")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{"navigated": true, "url": u, "title": "Page at " + u}, nil
		},
		"search": func(ctx context.Context, p Params) (map[string]any, error) {
			query, err := p.Require("query")
			if err != nil {
				return nil, err
			}
			engine := p.String("engine", "google")
			base, ok := searchEngines[engine]
			if !ok {
				base = searchEngines["google"]
			}
			if err := sim.wait(ctx, 1.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"query":  query,
				"engine": engine,
				"url":    base + url.QueryEscape(query),
				"results": []any{
					map[string]any{"title": "Result for " + query, "url": "https://example.com/1"},
					map[string]any{"title": "More about " + query, "url": "https://example.com/2"},
				},
			}, nil
		},
		"fill_form": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("form_data"); err != nil {
				return nil, err
			}
			fields := p.Map("form_data")
			return map[string]any{"filled": true, "fields_filled": len(fields), "submitted": p.Bool("submit", true)}, nil
		},
		"click": func(ctx context.Context, p Params) (map[string]any, error) {
			selector, err := p.Require("selector")
			if err != nil {
				return nil, err
			}
			return map[string]any{"clicked": true, "selector": selector, "selector_type": p.String("selector_type", "id")}, nil
		},
		"screenshot": func(ctx context.Context, p Params) (map[string]any, error) {
			return map[string]any{"captured": true, "file_path": p.String("file_path", sim.stamp("screenshot", ".png"))}, nil
		},
		"extract": func(ctx context.Context, p Params) (map[string]any, error) {
			selector, err := p.Require("selector")
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"selector":      selector,
				"selector_type": p.String("selector_type", "css"),
				"attribute":     p.String("attribute", "text"),
				"data":          []any{"Sample item 1", "Sample item 2", "Sample item 3"},
			}, nil
		},
	})
}
