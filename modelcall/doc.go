// Package modelcall provides gollm-backed implementations of the two model
// capabilities the codeact loop consumes: the action generator that turns
// the rendered run state into (reasoning, code), and the fallback extractor
// that synthesizes a structured payload when the iteration budget runs out.
// It also exposes the bare Ask call used behind the sub-call budget.
package modelcall
