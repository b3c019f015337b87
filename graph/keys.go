package graph

// Internal state keys. They never leave the process: the executor strips
// them before committing a checkpoint.
const (
	// StateKeyResume carries the caller-supplied resume value into the
	// re-entered node.
	StateKeyResume = "__resume__"
	// StateKeyUsedInterrupts tracks interrupt sites already satisfied in
	// the current invocation.
	StateKeyUsedInterrupts = "__used_interrupts__"
)

// internalStateKeys are stripped from state before checkpointing. They are
// either per-run plumbing or live handles that cannot be serialized.
var internalStateKeys = map[string]struct{}{
	StateKeyExecContext:    {},
	StateKeyUserInput:      {},
	StateKeyModel:          {},
	StateKeyRemainingSteps: {},
	StateKeyConfigurable:   {},
	StateKeyResume:         {},
	StateKeyUsedInterrupts: {},
}

// isInternalStateKey reports whether a state key is process-internal.
func isInternalStateKey(key string) bool {
	if _, ok := internalStateKeys[key]; ok {
		return true
	}
	return len(key) > 4 && key[:2] == "__" && key[len(key)-2:] == "__"
}

// DurableState returns a copy of the state with internal keys stripped,
// suitable for checkpointing.
func DurableState(state State) State {
	durable := make(State, len(state))
	for k, v := range state {
		if isInternalStateKey(k) {
			continue
		}
		durable[k] = v
	}
	return durable
}
