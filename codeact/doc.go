// Package codeact implements a code-acting agent loop: a language model
// solves a task by iteratively writing short scripts, executing them in a
// restricted stateful sandbox, observing the output, and eventually
// submitting a structured final answer.
//
// The loop orchestrates action generation, sandboxed execution, bounded
// interaction history, final-output validation, and sub-call budgeting into
// a single sequential run with hard iteration and time ceilings.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Runner: The loop controller. Drives iterations, detects stuck
//     repetition, validates submissions, falls back to extraction when the
//     iteration budget runs out, and aborts on timeout.
//   - Engine: The sandboxed execution contract. A stateful session that
//     runs one script at a time, persists bindings across calls, and
//     returns either captured text or a final submission.
//   - History: An immutable, append-only record of executed steps rendered
//     back to the model each iteration with bounded output previews.
//   - TaskSpec: Declared input and output fields with types used for
//     variable summaries and submission coercion.
//   - SubCallBudget: A lock-guarded ceiling on secondary model calls
//     issued from inside sandboxed code.
//
// # Quick Start
//
//	session := starlarkbox.NewSession()
//	client, _ := modelcall.New("anthropic")
//	runner := codeact.NewRunner(session,
//	    client.Generator(spec, nil), client.Extractor(spec),
//	    codeact.WithAsk(client.Ask))
//
//	result, err := runner.Run(ctx, spec, map[string]any{"question": q})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Outputs["answer"])
package codeact
