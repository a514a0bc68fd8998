package providers

import (
	"context"
	"sync"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
)

// Clipboard holds the text most recently copied through the provider.
type Clipboard struct {
	mu   sync.Mutex
	text string
}

func (c *Clipboard) Set(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

func (c *Clipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func newClipboardProvider(sim simulator, clip *Clipboard) *ActionSet {
	return NewActionSet("clipboard/screenshot", map[string]ActionFunc{
		"copy_text": func(ctx context.Context, p Params) (map[string]any, error) {
			text, err := p.Require("text")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 0.3); err != nil {
				return nil, err
			}
			clip.Set(text)
			return map[string]any{
				"copied":    true,
				"text":      text,
				"length":    len([]rune(text)),
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		"paste_text": func(ctx context.Context, p Params) (map[string]any, error) {
			delay, err := p.Float("delay", 0.5)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, delay+0.3); err != nil {
				return nil, err
			}
			return map[string]any{
				"pasted":    true,
				"text":      clip.Text(),
				"delay":     delay,
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		"get_clipboard": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 0.3); err != nil {
				return nil, err
			}
			return map[string]any{
				"text":             clip.Text(),
				"has_image":        false,
				"image_preview":    nil,
				"image_dimensions": nil,
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"take_screenshot": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 0.8); err != nil {
				return nil, err
			}
			return map[string]any{
				"screenshot_taken": true,
				"save_path":        p.String("save_path", sim.stamp("screenshot", ".png")),
				"include_cursor":   p.Bool("include_cursor", true),
				"dimensions":       []int{1920, 1080},
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"take_region_screenshot": func(ctx context.Context, p Params) (map[string]any, error) {
			region, err := p.Region("region", nil)
			if err != nil {
				return nil, err
			}
			if region == nil {
				return nil, service.NewError(service.InvalidParameter, "Invalid region parameter: must be [x, y, width, height]")
			}
			if err := sim.wait(ctx, 0.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"screenshot_taken": true,
				"save_path":        p.String("save_path", sim.stamp("region_screenshot", ".png")),
				"region":           region,
				"dimensions":       []int{region[2], region[3]},
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"capture_active_window": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 0.8); err != nil {
				return nil, err
			}
			return map[string]any{
				"screenshot_taken": true,
				"save_path":        p.String("save_path", sim.stamp("window", ".png")),
				"window_title":     "Active Window",
				"dimensions":       []int{1280, 720},
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"save_clipboard_image": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 0.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"saved":      true,
				"save_path":  p.String("save_path", sim.stamp("clipboard_image", ".png")),
				"dimensions": []int{800, 600},
				"timestamp":  sim.now().Format(time.RFC3339),
			}, nil
		},
	})
}
