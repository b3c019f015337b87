package graph

import (
	"context"
)

// Interrupt interrupts execution at the current node and surfaces the
// provided prompt value to the caller. On resume, it returns the resume
// value that the caller supplied.
//
// A node re-enters from its start on resume, so everything before the
// Interrupt call re-runs. The key lets one node hold several interrupt
// sites; once a resume value is consumed for a key, the same value is
// returned again if the node re-executes within the run.
func Interrupt(ctx context.Context, state State, key string, prompt any) (any, error) {
	// Track which interrupts have been consumed in this invocation so the
	// same resume value is returned if the node re-executes.
	usedMap, _ := state[StateKeyUsedInterrupts].(map[string]any)
	if usedMap == nil {
		usedMap = make(map[string]any)
		state[StateKeyUsedInterrupts] = usedMap
	}
	if usedValue, exists := usedMap[key]; exists {
		return usedValue, nil
	}

	if resumeValue, exists := state[StateKeyResume]; exists {
		usedMap[key] = resumeValue
		// Clear the resume value so later interrupt sites suspend again.
		delete(state, StateKeyResume)
		return resumeValue, nil
	}

	// Not resuming, so interrupt with the prompt.
	return nil, NewInterruptError(key, prompt)
}

// ResumeValue extracts a resume value from the state with type safety.
func ResumeValue[T any](state State) (T, bool) {
	var zero T
	if resumeValue, exists := state[StateKeyResume]; exists {
		if typedValue, ok := resumeValue.(T); ok {
			delete(state, StateKeyResume)
			return typedValue, true
		}
	}
	return zero, false
}

// HasResumeValue checks if a resume value is available in the state.
func HasResumeValue(state State) bool {
	_, exists := state[StateKeyResume]
	return exists
}

// ClearResumeValues clears resume bookkeeping from the state.
func ClearResumeValues(state State) {
	delete(state, StateKeyResume)
	delete(state, StateKeyUsedInterrupts)
}
