package providers

import (
	"context"
	"fmt"
	"time"
)

func newEmailProvider(sim simulator) *ActionSet {
	sampleInbox := func(now time.Time) []any {
		return []any{
			map[string]any{
				"from":       "john.doe@example.com",
				"subject":    "Project Update - Q2 Goals",
				"date":       now.Add(-2 * time.Hour).Format(time.RFC3339),
				"preview":    "Hi team, I wanted to share our progress on the Q2 goals...",
				"importance": "high",
			},
			map[string]any{
				"from":       "meetings@company.com",
				"subject":    "Meeting Reminder: Weekly Standup",
				"date":       now.Add(-5 * time.Hour).Format(time.RFC3339),
				"preview":    "This is a reminder for tomorrow's weekly standup at 10:00 AM...",
				"importance": "medium",
			},
			map[string]any{
				"from":       "support@vendor.com",
				"subject":    "Your support ticket #12345 has been resolved",
				"date":       now.Add(-8 * time.Hour).Format(time.RFC3339),
				"preview":    "We're happy to inform you that your recent support ticket has been resolved...",
				"importance": "low",
			},
		}
	}

	return NewActionSet("email", map[string]ActionFunc{
		"summarize": func(ctx context.Context, p Params) (map[string]any, error) {
			folder := p.String("folder", "INBOX")
			limit, err := p.Int("limit", 5)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			emails := sampleInbox(sim.now())
			if limit >= 0 && limit < len(emails) {
				emails = emails[:limit]
			}
			return map[string]any{
				"summary":         fmt.Sprintf("You have %d recent emails in %s", 3, folder),
				"unread_count":    2,
				"important_count": 1,
				"emails":          emails,
			}, nil
		},
		"compose": func(ctx context.Context, p Params) (map[string]any, error) {
			body := p.String("body", "")
			preview := body
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			return map[string]any{
				"drafted":      true,
				"to":           p.String("to", ""),
				"subject":      p.String("subject", ""),
				"body_preview": preview,
			}, nil
		},
		"send": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("to", "subject", "body"); err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			return map[string]any{
				"sent":      true,
				"to":        p.String("to", ""),
				"subject":   p.String("subject", ""),
				"timestamp": sim.now().Format(time.RFC3339),
			}, nil
		},
		"search": func(ctx context.Context, p Params) (map[string]any, error) {
			query, err := p.Require("query")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			results := sampleInbox(sim.now())
			return map[string]any{
				"query":         query,
				"folder":        p.String("folder", "INBOX"),
				"results_count": len(results),
				"results":       results,
			}, nil
		},
		"mark_read": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("email_ids"); err != nil {
				return nil, err
			}
			ids := p.Strings("email_ids")
			return map[string]any{"marked_read": len(ids), "email_ids": ids}, nil
		},
		"move": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("email_ids", "destination"); err != nil {
				return nil, err
			}
			ids := p.Strings("email_ids")
			return map[string]any{"moved": len(ids), "destination": p.String("destination", ""), "email_ids": ids}, nil
		},
		"delete": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("email_ids"); err != nil {
				return nil, err
			}
			ids := p.Strings("email_ids")
			return map[string]any{"deleted": len(ids), "email_ids": ids}, nil
		},
	})
}
