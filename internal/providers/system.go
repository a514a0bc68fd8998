package providers

import (
	"context"
	"runtime"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
)

func newSystemProvider(sim simulator) *ActionSet {
	return NewActionSet("system", map[string]ActionFunc{
		"open_app": func(ctx context.Context, p Params) (map[string]any, error) {
			name, path := p.String("app_name", ""), p.String("app_path", "")
			if name == "" && path == "" {
				return nil, service.NewError(service.MissingParameter, "Missing required parameters: either app_name or app_path must be provided")
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"opened":    true,
				"app_name":  name,
				"app_path":  path,
				"arguments": p.Strings("arguments"),
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		"close_app": func(ctx context.Context, p Params) (map[string]any, error) {
			name, err := p.Require("app_name")
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"closed":    true,
				"app_name":  name,
				"force":     p.Bool("force", false),
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		"type_text": func(ctx context.Context, p Params) (map[string]any, error) {
			text, err := p.Require("text")
			if err != nil {
				return nil, err
			}
			interval, err := p.Float("interval", 0.01)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, interval*float64(len(text))); err != nil {
				return nil, err
			}
			return map[string]any{"typed": true, "characters": len([]rune(text)), "timestamp": sim.now().Format(time.RFC3339)}, nil
		},
		"press_keys": func(ctx context.Context, p Params) (map[string]any, error) {
			keys := p.Strings("keys")
			if len(keys) == 0 {
				return nil, service.NewError(service.MissingParameter, "Missing required parameter: keys")
			}
			return map[string]any{"pressed": true, "keys": keys, "timestamp": sim.now().Format(time.RFC3339)}, nil
		},
		"get_system_info": func(ctx context.Context, p Params) (map[string]any, error) {
			return map[string]any{
				"system":    runtime.GOOS,
				"platform":  runtime.GOOS + "/" + runtime.GOARCH,
				"processor": "Intel(R) Core(TM) i7-10700K CPU @ 3.80GHz",
				"cpu_count": runtime.NumCPU(),
				"cpu_usage": 35.2,
				"memory":    map[string]any{"total": 16384, "available": 8192, "percent": 50.0},
				"disk":      map[string]any{"total": 512000, "used": 256000, "free": 256000, "percent": 50.0},
				"battery":   map[string]any{"percent": 75, "power_plugged": true},
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		// Commands are never executed; the result is simulated.
		"run_command": func(ctx context.Context, p Params) (map[string]any, error) {
			command, err := p.Require("command")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"executed":    true,
				"command":     command,
				"return_code": 0,
				"stdout":      "Simulated command output",
				"stderr":      "",
				"timestamp":   sim.now().Format(time.RFC3339),
			}, nil
		},
		"take_screenshot": func(ctx context.Context, p Params) (map[string]any, error) {
			region, err := p.Region("region", nil)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 0.8); err != nil {
				return nil, err
			}
			var r any
			if region != nil {
				r = region
			}
			return map[string]any{
				"screenshot_taken": true,
				"file_path":        p.String("file_path", sim.stamp("screenshot", ".png")),
				"region":           r,
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"monitor_process": func(ctx context.Context, p Params) (map[string]any, error) {
			name, err := p.Require("process_name")
			if err != nil {
				return nil, err
			}
			duration, err := p.Int("duration", 5)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"process_name": name,
				"duration":     duration,
				"processes": []any{
					map[string]any{"pid": 1234, "name": name, "cpu_percent": 2.5, "memory_percent": 1.2},
				},
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
	})
}
