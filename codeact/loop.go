package codeact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActionGenerator maps the rendered variables, the rendered history, and a
// progress string ("i/max") to the model's next (reasoning, code) pair.
// Failures are fatal to the run.
type ActionGenerator func(ctx context.Context, variablesText, historyText, progress string) (reasoning, code string, err error)

// Extractor synthesizes a best-effort structured payload from the rendered
// variables and full history once the iteration budget is exhausted.
// Failures are fatal to the run.
type Extractor func(ctx context.Context, variablesText, historyText string) (map[string]any, error)

// TerminationMode reports how a run produced its result.
type TerminationMode string

const (
	TerminationSubmitted TerminationMode = "submitted"
	TerminationFallback  TerminationMode = "fallback"
)

// RunResult is the structured outcome of a run.
type RunResult struct {
	Outputs     map[string]any  `json:"outputs"`
	Iterations  int             `json:"iterations_used"`
	Termination TerminationMode `json:"termination"`
}

// RunConfig holds the recognized run options.
type RunConfig struct {
	MaxIterations  int           `json:"max_iterations"`
	MaxSubCalls    int           `json:"max_sub_calls"`
	MaxOutputChars int           `json:"max_output_chars"`
	PreviewChars   int           `json:"preview_chars"`
	Timeout        time.Duration `json:"timeout"` // 0 = unbounded
	Verbose        bool          `json:"verbose"`
}

// DefaultRunConfig returns the default run configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxIterations:  20,
		MaxSubCalls:    50,
		MaxOutputChars: DefaultMaxOutputChars,
		PreviewChars:   DefaultPreviewChars,
	}
}

// Runner drives the agent loop for one run at a time. It is single-threaded
// and fully sequential: one action-generation call, one execution, one
// decision per iteration.
type Runner struct {
	id       string
	engine   Engine
	generate ActionGenerator
	extract  Extractor
	ask      AskFunc
	tools    map[string]Tool
	config   RunConfig
	emitter  *EventEmitter
	logger   *slog.Logger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConfig sets the run configuration.
func WithConfig(config RunConfig) RunnerOption {
	return func(r *Runner) { r.config = config }
}

// WithTools supplies host tools reachable from sandboxed code. Any shape
// accepted by NormalizeTools works; unsupported shapes yield no tools.
func WithTools(tools any) RunnerOption {
	return func(r *Runner) { r.tools = NormalizeTools(tools) }
}

// WithAsk supplies the secondary ask-the-model capability, exposed to
// scripts as llm(prompt) behind the sub-call budget.
func WithAsk(ask AskFunc) RunnerOption {
	return func(r *Runner) { r.ask = ask }
}

// WithLogger sets the logger used when Verbose is enabled.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner around an execution engine and the two model
// capabilities it consumes.
func NewRunner(engine Engine, generate ActionGenerator, extract Extractor, opts ...RunnerOption) *Runner {
	runID := uuid.New().String()
	r := &Runner{
		id:       runID,
		engine:   engine,
		generate: generate,
		extract:  extract,
		tools:    make(map[string]Tool),
		config:   DefaultRunConfig(),
		emitter:  NewEventEmitter(runID, 256),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the run identifier.
func (r *Runner) ID() string { return r.id }

// Close closes the event channel. Safe to call multiple times.
func (r *Runner) Close() { r.emitter.Close() }

// Events returns the event channel for the host application.
func (r *Runner) Events() <-chan RunEvent { return r.emitter.Events() }

// Run executes the agent loop for one task and returns the structured
// result. It fails with a TimeoutError when the time ceiling is exceeded,
// and propagates setup, generator, and extractor failures as fatal.
func (r *Runner) Run(ctx context.Context, spec TaskSpec, inputs map[string]any) (*RunResult, error) {
	budget := NewSubCallBudget(r.config.MaxSubCalls)
	if err := r.bindTools(ctx, budget); err != nil {
		return nil, fmt.Errorf("tool binding: %w", err)
	}
	if err := r.engine.Start(); err != nil {
		return nil, fmt.Errorf("engine start: %w", err)
	}
	defer r.engine.Shutdown()

	summaries := r.summarize(spec, inputs)
	variablesText := FormatVariables(summaries)
	history := NewHistory(r.config.MaxOutputChars)

	start := r.now()
	r.emitter.Emit(EventRunStart, map[string]any{"inputs": len(inputs)})
	r.log("run start", "run_id", r.id, "max_iterations", r.config.MaxIterations)

	injected := false
	for i := 1; i <= r.config.MaxIterations; i++ {
		if err := r.checkDeadline(ctx, start); err != nil {
			r.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			r.emitter.Emit(EventRunEnd, map[string]any{"termination": "aborted"})
			return nil, err
		}

		progress := fmt.Sprintf("%d/%d", i, r.config.MaxIterations)
		r.emitter.Emit(EventIterationStart, map[string]any{"iteration": progress})

		reasoning, code, err := r.generate(ctx, variablesText, history.Format(), progress)
		if err != nil {
			r.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("action generation failed: %w", err)
		}
		r.emitter.Emit(EventCodeGenerated, map[string]any{"code": code})
		r.log("code generated", "iteration", i, "chars", len(code))

		if IsStuck(history, code) {
			history = history.Append(StepRecord{Reasoning: reasoning, Code: code, Output: StuckHint})
			r.emitter.Emit(EventStuckHint, map[string]any{"iteration": i})
			r.log("stuck hint issued", "iteration", i)
			continue
		}

		var variables map[string]any
		if !injected {
			variables = inputs
			injected = true
		}
		result, err := r.engine.Execute(ctx, code, variables)
		if err != nil {
			// Recoverable execution failures feed back into the history.
			history = history.Append(StepRecord{Reasoning: reasoning, Code: code, Output: "[Error] " + err.Error()})
			r.emitter.Emit(EventExecutionEnd, map[string]any{"iteration": i, "error": err.Error()})
			continue
		}

		if result.Kind == ResultSubmission {
			outputs, verr := ValidateSubmission(result.Payload, spec.Outputs)
			if verr != nil {
				history = history.Append(StepRecord{Reasoning: reasoning, Code: code, Output: "[Error] " + verr.Error()})
				r.emitter.Emit(EventSubmissionRejected, map[string]any{"iteration": i, "error": verr.Error()})
				r.log("submission rejected", "iteration", i, "error", verr)
				continue
			}
			history = history.Append(StepRecord{Reasoning: reasoning, Code: code, Output: acceptedSummary(outputs)})
			r.emitter.Emit(EventSubmitted, map[string]any{"iteration": i})
			r.emitter.Emit(EventRunEnd, map[string]any{"termination": string(TerminationSubmitted)})
			r.log("submission accepted", "iteration", i)
			return &RunResult{Outputs: outputs, Iterations: i, Termination: TerminationSubmitted}, nil
		}

		history = history.Append(StepRecord{Reasoning: reasoning, Code: code, Output: result.Text})
		r.emitter.Emit(EventExecutionEnd, map[string]any{"iteration": i, "chars": len(result.Text)})
	}

	r.emitter.Emit(EventFallbackStart, nil)
	r.log("iteration budget exhausted, extracting")
	outputs, err := r.extract(ctx, variablesText, history.Format())
	if err != nil {
		r.emitter.Emit(EventError, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("fallback extraction failed: %w", err)
	}
	r.emitter.Emit(EventRunEnd, map[string]any{"termination": string(TerminationFallback)})
	return &RunResult{Outputs: outputs, Iterations: r.config.MaxIterations, Termination: TerminationFallback}, nil
}

// bindTools installs the user tools plus the budget-guarded llm capability
// on engines that accept bindings. The budget is scoped to this run.
func (r *Runner) bindTools(ctx context.Context, budget *SubCallBudget) error {
	binder, ok := r.engine.(ToolBinder)
	if !ok {
		return nil
	}
	tools := make(map[string]Tool, len(r.tools)+1)
	for name, t := range r.tools {
		tools[name] = t
	}
	if r.ask != nil {
		guarded := budget.Wrap(r.ask)
		tools["llm"] = Tool{
			Name:        "llm",
			Description: "llm(prompt): ask the model a standalone question and return its reply.",
			Params:      []Param{{Name: "prompt", Kind: ParamPositional}},
			Fn: func(args []any, kwargs map[string]any) (any, error) {
				prompt := ""
				if len(args) > 0 {
					if s, ok := args[0].(string); ok {
						prompt = s
					}
				}
				if p, ok := kwargs["prompt"].(string); ok && prompt == "" {
					prompt = p
				}
				return guarded(ctx, prompt)
			},
		}
	}
	return binder.BindTools(tools)
}

func (r *Runner) summarize(spec TaskSpec, inputs map[string]any) []VariableSummary {
	summaries := make([]VariableSummary, 0, len(spec.Inputs))
	for _, f := range spec.Inputs {
		summaries = append(summaries, SummarizeVariable(f.Name, inputs[f.Name], f.Description, r.config.PreviewChars))
	}
	return summaries
}

// checkDeadline evaluates the cooperative timeout at an iteration boundary.
func (r *Runner) checkDeadline(ctx context.Context, start time.Time) error {
	select {
	case <-ctx.Done():
		return &TimeoutError{
			LoopError: LoopError{Message: "run cancelled", Cause: ctx.Err()},
			Elapsed:   r.now().Sub(start),
			Limit:     r.config.Timeout,
		}
	default:
	}
	if r.config.Timeout > 0 {
		elapsed := r.now().Sub(start)
		if elapsed > r.config.Timeout {
			return &TimeoutError{
				LoopError: LoopError{Message: fmt.Sprintf("run exceeded the %s time ceiling after %s", r.config.Timeout, elapsed)},
				Elapsed:   elapsed,
				Limit:     r.config.Timeout,
			}
		}
	}
	return nil
}

func acceptedSummary(outputs map[string]any) string {
	data, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Sprintf("Submitted final answer: %v", outputs)
	}
	return "Submitted final answer: " + string(data)
}

func (r *Runner) log(msg string, args ...any) {
	if r.config.Verbose {
		r.logger.Info(msg, args...)
	}
}
