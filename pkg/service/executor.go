package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Himanshujchavan/GROQPILOT/pkg/service"

// Call is one target/action invocation.
type Call struct {
	Target     string
	Action     string
	Parameters map[string]any
	Timeout    time.Duration // 0 waits for the provider indefinitely
}

// Outcome is what a Call produced. Exactly one of Result and Err is set.
type Outcome struct {
	Result  map[string]any
	Err     error
	Elapsed time.Duration
}

// Executor runs single calls against the provider registry. Provider errors
// and panics never escape Execute; they come back in Outcome.Err.
type Executor struct {
	providers *ProviderRegistry
	logger    Logger
	metrics   Metrics
	tracer    trace.Tracer
}

func NewExecutor(providers *ProviderRegistry, logger Logger, metrics Metrics) *Executor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Executor{
		providers: providers,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute runs call and reports it through rep. A nil rep emits nothing, which
// is how the workflow engine keeps its own step-level event stream.
func (e *Executor) Execute(ctx context.Context, rep *events.Reporter, call Call) Outcome {
	if rep == nil {
		rep = events.NewReporter(events.Discard, "")
	}

	rep.Log(fmt.Sprintf("Starting %s automation: %s", call.Target, call.Action), events.LevelInfo, nil)
	provider, err := e.providers.Lookup(call.Target)
	if err != nil {
		e.logger.Errorf("Rejected %s on %s: %v", call.Action, call.Target, err)
		rep.Error(err.Error(), string(UnsupportedTarget), map[string]any{"target": call.Target})
		e.metrics.ActionExecuted(call.Target, call.Action, UnsupportedTarget, 0)
		return Outcome{Err: err}
	}

	rep.Progress(1, 3, fmt.Sprintf("Initializing %s on %s", call.Action, call.Target))

	result, elapsed, err := e.invoke(ctx, provider, call)
	if err != nil {
		kind := KindOf(err)
		e.logger.Errorf("Error executing %s on %s: %v", call.Action, call.Target, err)
		rep.Error(fmt.Sprintf("Error executing %s: %v", call.Action, err), string(kind), map[string]any{
			"target": call.Target,
			"action": call.Action,
		})
		e.metrics.ActionExecuted(call.Target, call.Action, kind, elapsed)
		return Outcome{Err: err, Elapsed: elapsed}
	}

	e.logger.Infof("Completed %s on %s in %.2fs", call.Action, call.Target, elapsed.Seconds())
	rep.Progress(3, 3, fmt.Sprintf("Completed %s successfully", call.Action))
	rep.Result(true, result, fmt.Sprintf("Successfully completed %s on %s", call.Action, call.Target))
	e.metrics.ActionExecuted(call.Target, call.Action, "", elapsed)
	return Outcome{Result: result, Elapsed: elapsed}
}

type providerReply struct {
	result map[string]any
	err    error
}

// invoke calls the provider on its own goroutine so a deadline can be honoured
// even when the provider ignores ctx. Only the provider call is timed.
func (e *Executor) invoke(ctx context.Context, provider Provider, call Call) (map[string]any, time.Duration, error) {
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}
	ctx, span := e.tracer.Start(ctx, "automation.execute", trace.WithAttributes(
		attribute.String("automation.target", call.Target),
		attribute.String("automation.action", call.Action),
	))
	defer span.End()

	params := models.CloneMap(call.Parameters)
	if params == nil {
		params = map[string]any{}
	}

	replyCh := make(chan providerReply, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replyCh <- providerReply{err: NewError(ExecutionFailed, "provider %s panicked: %v", call.Target, r)}
			}
		}()
		res, err := provider.Execute(ctx, call.Action, params)
		replyCh <- providerReply{result: res, err: err}
	}()

	var reply providerReply
	select {
	case reply = <-replyCh:
	case <-ctx.Done():
		reply.err = ctx.Err()
	}
	elapsed := time.Since(start)

	if reply.err != nil {
		err := normalizeProviderError(call, reply.err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, elapsed, err
	}
	if reply.result == nil {
		reply.result = map[string]any{}
	}
	return reply.result, elapsed, nil
}

// normalizeProviderError keeps validation kinds reported by providers and turns
// everything else into ExecutionFailed.
func normalizeProviderError(call Call, err error) error {
	switch KindOf(err) {
	case MissingParameter, InvalidParameter, UnsupportedAction:
		return err
	}
	if isContextErr(err) {
		if errors.Is(err, context.DeadlineExceeded) && call.Timeout > 0 {
			return WrapError(ExecutionFailed, err, fmt.Sprintf("%s on %s timed out after %s", call.Action, call.Target, call.Timeout))
		}
		return WrapError(ExecutionFailed, err, fmt.Sprintf("%s on %s was interrupted: %v", call.Action, call.Target, err))
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == ExecutionFailed {
		return err
	}
	return WrapError(ExecutionFailed, err, "")
}
