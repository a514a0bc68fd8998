package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingAt fails the action named "fail".
func failingAt() *fakeProvider {
	return &fakeProvider{fn: func(_ context.Context, action string, _ map[string]any) (map[string]any, error) {
		if action == "fail" {
			return nil, errors.New("step exploded")
		}
		return map[string]any{"done": action}, nil
	}}
}

func steps(actions ...string) []models.WorkflowStep {
	out := make([]models.WorkflowStep, len(actions))
	for i, a := range actions {
		out[i] = models.WorkflowStep{Target: "system", Action: a, Parameters: map[string]any{"n": i + 1}}
	}
	return out
}

func runWorkflow(t *testing.T, svc *service.AutomationService, def models.WorkflowDefinition) models.TaskRecord {
	t.Helper()
	sub, err := svc.SubmitWorkflow(context.Background(), def)
	require.NoError(t, err)
	require.Equal(t, service.StatusRunning, sub.Status)
	return waitTask(t, svc, sub.TaskID)
}

func TestWorkflowEngine(t *testing.T) {

	t.Run("AllStepsSucceed", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		rec := runWorkflow(t, svc, models.WorkflowDefinition{Name: "nightly", Steps: steps("a", "b", "c")})
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Equal(t, models.WorkflowTaskKind, rec.Kind)
		assert.Equal(t, "nightly", rec.Name)
		assert.Equal(t, 3, rec.StepsCompleted)
		assert.Equal(t, 3, rec.TotalSteps)
		require.Len(t, rec.Results, 3)
		for i, r := range rec.Results {
			assert.Equal(t, i+1, r.Step)
			assert.True(t, r.Success)
			assert.Empty(t, r.Error)
			assert.Equal(t, map[string]any{"n": i + 1}, r.Parameters)
		}
		assert.Equal(t, "Step 2", rec.Results[1].Name)
		assert.Empty(t, rec.Error)
		assert.NotNil(t, rec.EndTime)
	})

	t.Run("HardStopOnFailure", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		rec := runWorkflow(t, svc, models.WorkflowDefinition{Steps: steps("a", "fail", "c", "d")})
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Equal(t, "Unnamed Workflow", rec.Name)
		assert.Equal(t, 2, rec.StepsCompleted)
		assert.Equal(t, 4, rec.TotalSteps)
		require.Len(t, rec.Results, 2)
		assert.True(t, rec.Results[0].Success)
		assert.False(t, rec.Results[1].Success)
		assert.Equal(t, "step exploded", rec.Results[1].Error)
		assert.Nil(t, rec.Results[1].Result)
		assert.Len(t, p.Calls(), 2)
	})

	t.Run("ContinueOnError", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		def := models.WorkflowDefinition{Steps: steps("a", "fail", "c", "d")}
		def.Steps[1].ContinueOnError = true
		rec := runWorkflow(t, svc, def)
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Equal(t, 4, rec.StepsCompleted)
		require.Len(t, rec.Results, 4)
		assert.Equal(t, []bool{true, false, true, true}, []bool{
			rec.Results[0].Success, rec.Results[1].Success, rec.Results[2].Success, rec.Results[3].Success,
		})
		assert.Len(t, p.Calls(), 4)
	})

	t.Run("UnknownTargetIsStepFailure", func(t *testing.T) {
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": failingAt()})

		def := models.WorkflowDefinition{Steps: []models.WorkflowStep{
			{Target: "fax", Action: "dial", ContinueOnError: true},
			{Target: "system", Action: "b"},
		}}
		rec := runWorkflow(t, svc, def)
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		require.Len(t, rec.Results, 2)
		assert.Equal(t, "Unsupported target: fax", rec.Results[0].Error)
		assert.True(t, rec.Results[1].Success)
	})

	t.Run("PassResultToNext", func(t *testing.T) {
		listing := map[string]any{"files": []any{"a.txt", "b.txt"}, "count": 2}
		files := &fakeProvider{fn: func(_ context.Context, action string, _ map[string]any) (map[string]any, error) {
			if action == "list_files" {
				return models.CloneMap(listing), nil
			}
			return map[string]any{"success": true}, nil
		}}
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"files": files})

		def := models.WorkflowDefinition{Steps: []models.WorkflowStep{
			{Target: "files", Action: "list_files", Parameters: map[string]any{}, PassResultToNext: true},
			{Target: "files", Action: "write_file", Parameters: map[string]any{"file_path": "out.txt"}},
		}}
		rec := runWorkflow(t, svc, def)
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Equal(t, 2, rec.StepsCompleted)
		require.Len(t, rec.Results, 2)
		assert.True(t, rec.Results[0].Success)
		assert.True(t, rec.Results[1].Success)

		calls := files.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, listing, calls[1].Parameters[models.PreviousResultKey])
		assert.Equal(t, "out.txt", calls[1].Parameters["file_path"])
		assert.Equal(t, listing, rec.Results[1].Parameters[models.PreviousResultKey])

		// The submitted definition is left untouched.
		require.NotNil(t, rec.Workflow)
		assert.NotContains(t, rec.Workflow.Steps[1].Parameters, models.PreviousResultKey)
		assert.NotContains(t, def.Steps[1].Parameters, models.PreviousResultKey)
	})

	t.Run("NoInjectionAfterFailure", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		def := models.WorkflowDefinition{Steps: steps("fail", "b")}
		def.Steps[0].PassResultToNext = true
		def.Steps[0].ContinueOnError = true
		rec := runWorkflow(t, svc, def)
		require.Len(t, rec.Results, 2)

		calls := p.Calls()
		require.Len(t, calls, 2)
		assert.NotContains(t, calls[1].Parameters, models.PreviousResultKey)
	})

	t.Run("InjectionOnlyIntoNextStep", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		def := models.WorkflowDefinition{Steps: steps("a", "b", "c")}
		def.Steps[0].PassResultToNext = true
		runWorkflow(t, svc, def)

		calls := p.Calls()
		require.Len(t, calls, 3)
		assert.Equal(t, map[string]any{"done": "a"}, calls[1].Parameters[models.PreviousResultKey])
		assert.NotContains(t, calls[2].Parameters, models.PreviousResultKey)
	})

	t.Run("EmptyWorkflowRejected", func(t *testing.T) {
		svc, _ := newService(t, service.Options{}, nil)

		_, err := svc.SubmitWorkflow(context.Background(), models.WorkflowDefinition{Name: "nothing"})
		require.Error(t, err)
		assert.True(t, service.IsKind(err, service.EmptyWorkflow))
		assert.Equal(t, "Workflow must contain at least one step", err.Error())
		tasks, err := svc.ListTasks()
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("RunningRightAfterSubmission", func(t *testing.T) {
		release := make(chan struct{})
		p := &fakeProvider{fn: func(context.Context, string, map[string]any) (map[string]any, error) {
			<-release
			return map[string]any{}, nil
		}}
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		sub, err := svc.SubmitWorkflow(context.Background(), models.WorkflowDefinition{Steps: steps("a", "b")})
		require.NoError(t, err)
		rec, err := svc.GetTask(sub.TaskID)
		require.NoError(t, err)
		assert.Equal(t, models.RunningTaskStatus, rec.Status)
		assert.Equal(t, 2, rec.TotalSteps)
		assert.Contains(t, sub.TaskID, "workflow_")

		close(release)
		assert.Equal(t, models.CompletedTaskStatus, waitTask(t, svc, sub.TaskID).Status)
	})

	t.Run("ProgressEvents", func(t *testing.T) {
		svc, rec := newService(t, service.Options{}, map[string]service.Provider{"system": failingAt()})

		def := models.WorkflowDefinition{Name: "report", Steps: steps("a", "b")}
		def.Steps[0].Name = "collect"
		wf := runWorkflow(t, svc, def)

		var progress []events.ProgressPayload
		for _, e := range rec.ForTask(wf.ID) {
			if p, ok := e.Payload.(events.ProgressPayload); ok {
				progress = append(progress, p)
			}
		}
		require.Len(t, progress, 4)
		assert.Equal(t, 0, progress[0].Step)
		assert.Equal(t, "Starting workflow: report", progress[0].Message)
		assert.Equal(t, "Executing: collect", progress[1].Message)
		assert.Equal(t, 50, progress[1].Percentage)
		assert.Equal(t, "Executing: Step 2", progress[2].Message)
		assert.Equal(t, 2, progress[3].Step)
		assert.Equal(t, 100, progress[3].Percentage)

		results := rec.Named(events.ResultEvent)
		require.Len(t, results, 1)
		assert.Equal(t, "Workflow report completed successfully", results[0].Payload.(events.ResultPayload).Message)
	})

	t.Run("StepTimeoutSeconds", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		p := &fakeProvider{fn: func(_ context.Context, action string, _ map[string]any) (map[string]any, error) {
			if action == "hang" {
				<-release
			}
			return map[string]any{}, nil
		}}
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		def := models.WorkflowDefinition{Steps: steps("hang", "b")}
		def.Steps[0].TimeoutSeconds = 0.02
		def.Steps[0].ContinueOnError = true
		rec := runWorkflow(t, svc, def)
		require.Len(t, rec.Results, 2)
		assert.False(t, rec.Results[0].Success)
		assert.Contains(t, rec.Results[0].Error, "timed out")
		assert.True(t, rec.Results[1].Success)
	})

	t.Run("RiskyStepsNotGatedByDefault", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

		rec := runWorkflow(t, svc, models.WorkflowDefinition{Steps: steps("run_command")})
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Len(t, p.Calls(), 1)
	})

	t.Run("GateWorkflowSteps", func(t *testing.T) {
		p := failingAt()
		svc, _ := newService(t, service.Options{GateWorkflowSteps: true}, map[string]service.Provider{"system": p})

		sub, err := svc.SubmitWorkflow(context.Background(), models.WorkflowDefinition{Steps: steps("a", "run_command")})
		require.NoError(t, err)
		assert.Equal(t, service.StatusRequiresConfirmation, sub.Status)
		assert.Contains(t, sub.ConfirmationMessage, "Step 2")
		_, err = svc.GetTask(sub.TaskID)
		assert.True(t, service.IsKind(err, service.NotFound))

		rec := runWorkflow(t, svc, models.WorkflowDefinition{Steps: steps("a", "run_command"), ConfirmRisky: true})
		assert.Equal(t, models.CompletedTaskStatus, rec.Status)
		assert.Len(t, p.Calls(), 2)
	})

	t.Run("RegistryFailureMarksWorkflowFailed", func(t *testing.T) {
		store := &flakyStore{MemoryStore: storage.NewMemoryStore(), failAtStep: 2}
		svc, _ := newServiceWithStore(t, store, service.Options{}, map[string]service.Provider{"system": failingAt()})

		rec := runWorkflow(t, svc, models.WorkflowDefinition{Steps: steps("a", "b", "c")})
		assert.Equal(t, models.FailedTaskStatus, rec.Status)
		assert.Contains(t, rec.Error, "failed to record step 2")
		assert.Len(t, rec.Results, 2)
		assert.Equal(t, 2, rec.StepsCompleted)
		assert.NotNil(t, rec.EndTime)
	})
}

// flakyStore fails the first running-record update that reports failAtStep
// attempted steps.
type flakyStore struct {
	*storage.MemoryStore
	failAtStep int
	mu         sync.Mutex
	failed     bool
}

func (s *flakyStore) Begin() (storage.Store, error) {
	tx, err := s.MemoryStore.Begin()
	if err != nil {
		return nil, err
	}
	return &flakyTx{Store: tx, parent: s}, nil
}

type flakyTx struct {
	storage.Store
	parent *flakyStore
}

func (tx *flakyTx) UpdateTask(t models.TaskRecord) error {
	p := tx.parent
	p.mu.Lock()
	trip := !p.failed && t.Status == models.RunningTaskStatus && t.StepsCompleted == p.failAtStep
	if trip {
		p.failed = true
	}
	p.mu.Unlock()
	if trip {
		return errors.New("database unavailable")
	}
	return tx.Store.UpdateTask(t)
}

func TestWorkflowCarriedResultIsIsolated(t *testing.T) {
	p := &fakeProvider{fn: func(_ context.Context, action string, params map[string]any) (map[string]any, error) {
		switch action {
		case "describe":
			return map[string]any{
				"meta": map[string]string{"owner": "alice"},
				"ids":  []int{1, 2, 3},
			}, nil
		case "tamper":
			prev := params[models.PreviousResultKey].(map[string]any)
			prev["meta"].(map[string]string)["owner"] = "mallory"
			prev["ids"].([]int)[0] = 99
		}
		return map[string]any{"done": action}, nil
	}}
	svc, _ := newService(t, service.Options{}, map[string]service.Provider{"system": p})

	rec := runWorkflow(t, svc, models.WorkflowDefinition{Steps: []models.WorkflowStep{
		{Target: "system", Action: "describe", PassResultToNext: true},
		{Target: "system", Action: "tamper"},
	}})
	require.Len(t, rec.Results, 2)
	require.True(t, rec.Results[1].Success)
	assert.Equal(t, map[string]string{"owner": "alice"}, rec.Results[0].Result["meta"])
	assert.Equal(t, []int{1, 2, 3}, rec.Results[0].Result["ids"])
}

func TestCloneMapTypedContainers(t *testing.T) {
	type point struct {
		X    int
		Tags []string
	}
	src := map[string]any{
		"labels": map[string]string{"env": "prod"},
		"counts": []int{1, 2},
		"nested": map[string]any{"rows": []map[string]any{{"a": 1}}},
		"point":  &point{X: 1, Tags: []string{"x"}},
		"matrix": [][]float64{{1, 2}},
	}
	cp := models.CloneMap(src)
	require.Equal(t, src, cp)

	cp["labels"].(map[string]string)["env"] = "dev"
	cp["counts"].([]int)[0] = 7
	cp["nested"].(map[string]any)["rows"].([]map[string]any)[0]["a"] = 2
	cp["point"].(*point).Tags[0] = "y"
	cp["matrix"].([][]float64)[0][0] = 9

	assert.Equal(t, map[string]string{"env": "prod"}, src["labels"])
	assert.Equal(t, []int{1, 2}, src["counts"])
	assert.Equal(t, 1, src["nested"].(map[string]any)["rows"].([]map[string]any)[0]["a"])
	assert.Equal(t, []string{"x"}, src["point"].(*point).Tags)
	assert.Equal(t, [][]float64{{1, 2}}, src["matrix"])
}
