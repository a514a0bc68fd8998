package providers

import (
	"context"
	"strings"
	"time"
)

func newMailClientProvider(sim simulator) *ActionSet {
	inbox := func(now time.Time) []map[string]any {
		return []map[string]any{
			{"id": "msg-001", "sender": "manager@company.com", "subject": "Quarterly review", "received": now.Add(-1 * time.Hour).Format(time.RFC3339), "unread": true, "importance": "high"},
			{"id": "msg-002", "sender": "hr@company.com", "subject": "Benefits enrollment reminder", "received": now.Add(-26 * time.Hour).Format(time.RFC3339), "unread": true, "importance": "normal"},
			{"id": "msg-003", "sender": "newsletter@vendor.com", "subject": "Monthly product newsletter", "received": now.Add(-72 * time.Hour).Format(time.RFC3339), "unread": false, "importance": "low"},
		}
	}
	stamp := func(m map[string]any) map[string]any {
		m["timestamp"] = sim.now().Format(time.RFC3339)
		return m
	}
	matching := func(query string, emails []map[string]any) []any {
		q := strings.ToLower(query)
		out := []any{}
		for _, e := range emails {
			if strings.Contains(strings.ToLower(e["subject"].(string)), q) || strings.Contains(strings.ToLower(e["sender"].(string)), q) {
				out = append(out, e)
			}
		}
		return out
	}

	return NewActionSet("Outlook", map[string]ActionFunc{
		"send_email": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("to", "subject"); err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			attachments := p.Strings("attachments")
			if attachments == nil {
				attachments = []string{}
			}
			return stamp(map[string]any{
				"sent":        true,
				"to":          p.String("to", ""),
				"cc":          p.String("cc", ""),
				"bcc":         p.String("bcc", ""),
				"subject":     p.String("subject", ""),
				"body_length": len([]rune(p.String("body", ""))),
				"html_body":   p.Bool("html_body", false),
				"attachments": attachments,
				"importance":  p.String("importance", "normal"),
			}), nil
		},
		"read_emails": func(ctx context.Context, p Params) (map[string]any, error) {
			count, err := p.Int("count", 10)
			if err != nil {
				return nil, err
			}
			days, err := p.Int("days", 7)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			unreadOnly := p.Bool("unread_only", false)
			var list []any
			for _, e := range inbox(sim.now()) {
				if unreadOnly && !e["unread"].(bool) {
					continue
				}
				list = append(list, e)
			}
			total := len(list)
			if count >= 0 && count < len(list) {
				list = list[:count]
			}
			return map[string]any{
				"folder":      p.String("folder", "Inbox"),
				"count":       len(list),
				"unread_only": unreadOnly,
				"days":        days,
				"emails":      list,
				"total_found": total,
			}, nil
		},
		"create_meeting": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("subject", "start_time", "end_time"); err != nil {
				return nil, err
			}
			reminder, err := p.Int("reminder_minutes", 15)
			if err != nil {
				return nil, err
			}
			return stamp(map[string]any{
				"created":            true,
				"subject":            p.String("subject", ""),
				"location":           p.String("location", ""),
				"start_time":         p.String("start_time", ""),
				"end_time":           p.String("end_time", ""),
				"required_attendees": p.String("required_attendees", ""),
				"optional_attendees": p.String("optional_attendees", ""),
				"reminder_minutes":   reminder,
			}), nil
		},
		"create_task": func(ctx context.Context, p Params) (map[string]any, error) {
			subject, err := p.Require("subject")
			if err != nil {
				return nil, err
			}
			return stamp(map[string]any{
				"created":       true,
				"subject":       subject,
				"due_date":      p.String("due_date", ""),
				"priority":      p.String("priority", "normal"),
				"reminder":      p.Bool("reminder", false),
				"reminder_time": p.String("reminder_time", ""),
			}), nil
		},
		"create_contact": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("first_name", "last_name"); err != nil {
				return nil, err
			}
			return stamp(map[string]any{
				"created":    true,
				"first_name": p.String("first_name", ""),
				"last_name":  p.String("last_name", ""),
				"email":      p.String("email", ""),
				"company":    p.String("company", ""),
				"job_title":  p.String("job_title", ""),
			}), nil
		},
		"search_emails": func(ctx context.Context, p Params) (map[string]any, error) {
			query, err := p.Require("query")
			if err != nil {
				return nil, err
			}
			max, err := p.Int("max_results", 10)
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			results := matching(query, inbox(sim.now()))
			if max >= 0 && max < len(results) {
				results = results[:max]
			}
			return map[string]any{
				"query":         query,
				"folder":        p.String("folder", "Inbox"),
				"max_results":   max,
				"results_found": len(results),
				"results":       results,
			}, nil
		},
		"get_calendar": func(ctx context.Context, p Params) (map[string]any, error) {
			now := sim.now()
			start := p.String("start_date", now.Format("2006-01-02"))
			end := p.String("end_date", now.AddDate(0, 0, 7).Format("2006-01-02"))
			events := []any{
				map[string]any{"subject": "Team standup", "start": now.AddDate(0, 0, 1).Format("2006-01-02") + "T10:00:00", "duration_minutes": 15, "recurring": true},
				map[string]any{"subject": "Project review", "start": now.AddDate(0, 0, 2).Format("2006-01-02") + "T14:00:00", "duration_minutes": 60, "recurring": false},
			}
			if !p.Bool("include_recurring", true) {
				events = events[1:]
			}
			return map[string]any{
				"start_date":        start,
				"end_date":          end,
				"include_recurring": p.Bool("include_recurring", true),
				"events_count":      len(events),
				"events":            events,
			}, nil
		},
		"move_emails": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := p.RequireAll("query", "destination_folder"); err != nil {
				return nil, err
			}
			moved := matching(p.String("query", ""), inbox(sim.now()))
			return stamp(map[string]any{
				"moved":              true,
				"query":              p.String("query", ""),
				"source_folder":      p.String("source_folder", "Inbox"),
				"destination_folder": p.String("destination_folder", ""),
				"emails_moved":       len(moved),
			}), nil
		},
		"delete_emails": func(ctx context.Context, p Params) (map[string]any, error) {
			query, err := p.Require("query")
			if err != nil {
				return nil, err
			}
			deleted := matching(query, inbox(sim.now()))
			return stamp(map[string]any{
				"deleted":        true,
				"query":          query,
				"folder":         p.String("folder", "Inbox"),
				"permanent":      p.Bool("permanent", false),
				"emails_deleted": len(deleted),
			}), nil
		},
	})
}
