package toolloop

import (
	"agentd/pkg/tools"
)

// OutcomeKind classifies how a tool loop finished.
type OutcomeKind int

const (
	// OutcomeSuccess means the model produced a final answer with no
	// further tool calls.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeAwaitUser means a tool paused the run to wait for user input.
	OutcomeAwaitUser
	// OutcomeMaxIterations means the iteration budget ran out before the
	// model finished.
	OutcomeMaxIterations
	// OutcomeLLMError means a completion failed with a non-recoverable error.
	OutcomeLLMError
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAwaitUser:
		return "await_user"
	case OutcomeMaxIterations:
		return "max_iterations"
	case OutcomeLLMError:
		return "llm_error"
	default:
		return "invalid"
	}
}

// Outcome is the result of running a tool loop.
//
//nolint:govet // fieldalignment: grouped for readability
type Outcome struct {
	Kind OutcomeKind

	// Content is the final assistant text for OutcomeSuccess and
	// OutcomeMaxIterations, or the pausing tool's result payload for
	// OutcomeAwaitUser.
	Content string

	// Effect is the process effect raised by the pausing tool.
	// Set only for OutcomeAwaitUser.
	Effect *tools.ProcessEffect

	// Iterations is the number of completed loop iterations.
	Iterations int

	// Err is set for OutcomeLLMError.
	Err error
}
