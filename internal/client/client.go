// Package client talks to a running GroqPilot server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/pkg/errors"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// ScheduleResponse is the answer to a schedule creation.
type ScheduleResponse struct {
	TaskID               string     `json:"task_id"`
	Status               string     `json:"status"`
	NextRun              *time.Time `json:"next_run"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
	ConfirmationMessage  string     `json:"confirmation_message"`
}

type Health struct {
	Status           string   `json:"status"`
	Timestamp        string   `json:"timestamp"`
	RunningTasks     int      `json:"running_tasks"`
	ScheduledTasks   int      `json:"scheduled_tasks"`
	AvailableTargets []string `json:"available_targets"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Automate runs req synchronously. Failures of the action itself come back
// inside the result; only transport and request errors are returned.
func (c *Client) Automate(ctx context.Context, req models.AutomationRequest) (models.AutomationResult, error) {
	var out models.AutomationResult
	err := c.do(ctx, http.MethodPost, "/automate", req, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == string(service.UnsupportedTarget) {
		return models.AutomationResult{Success: false, Error: apiErr.Message, ErrorType: apiErr.Kind}, nil
	}
	return out, err
}

func (c *Client) Submit(ctx context.Context, req models.AutomationRequest) (service.Submission, error) {
	var out service.Submission
	err := c.do(ctx, http.MethodPost, "/automate/async", req, &out)
	return out, err
}

func (c *Client) ExecuteWorkflow(ctx context.Context, def models.WorkflowDefinition) (service.Submission, error) {
	var out struct {
		WorkflowID          string `json:"workflow_id"`
		Status              string `json:"status"`
		ConfirmationMessage string `json:"confirmation_message"`
	}
	if err := c.do(ctx, http.MethodPost, "/workflow/execute", def, &out); err != nil {
		return service.Submission{}, err
	}
	return service.Submission{TaskID: out.WorkflowID, Status: out.Status, ConfirmationMessage: out.ConfirmationMessage}, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (models.TaskRecord, error) {
	var out models.TaskRecord
	err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &out)
	return out, err
}

func (c *Client) ListTasks(ctx context.Context) (map[string]models.TaskRecord, error) {
	out := map[string]models.TaskRecord{}
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// WaitTask polls the task every interval until it reaches a terminal status.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration) (models.TaskRecord, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return models.TaskRecord{}, err
		}
		if task.IsTerminal() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) CreateSchedule(ctx context.Context, task models.ScheduledTask) (ScheduleResponse, error) {
	var out ScheduleResponse
	err := c.do(ctx, http.MethodPost, "/schedule/task", task, &out)
	return out, err
}

func (c *Client) ListSchedules(ctx context.Context) ([]models.ScheduledTask, error) {
	var out struct {
		Tasks []models.ScheduledTask `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/schedule/tasks", nil, &out)
	return out.Tasks, err
}

func (c *Client) DeleteSchedule(ctx context.Context, id string) (models.ScheduledTask, error) {
	var out struct {
		Task models.ScheduledTask `json:"task"`
	}
	err := c.do(ctx, http.MethodDelete, "/schedule/task/"+id, nil, &out)
	return out.Task, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to build request %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var payload struct {
			Error     string `json:"error"`
			ErrorType string `json:"error_type"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Kind = payload.ErrorType
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, out), "failed to decode %s %s response", method, path)
}
