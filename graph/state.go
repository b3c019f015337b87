package graph

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

const (
	// StateKeyUserInput is the key of the user input for the current run.
	StateKeyUserInput = "user_input"
	// StateKeyLastResponse is the key of the last response text.
	StateKeyLastResponse = "last_response"
	// StateKeyMessages is the key of the message log.
	// Typically it is used and updated by the LLM node.
	StateKeyMessages = "messages"
	// StateKeyMetadata is the key of the metadata.
	StateKeyMetadata = "metadata"
	// StateKeySafety is the key of the safety assessment produced by an
	// input guard node.
	StateKeySafety = "safety"
	// StateKeyRemainingSteps is the key of the step budget left for the
	// current run. Maintained by the executor.
	StateKeyRemainingSteps = "remaining_steps"
	// StateKeyConfigurable is the key of the per-run configuration overrides
	// visible to every node.
	StateKeyConfigurable = "configurable"
	// StateKeyModel is the key of a per-run model override.
	StateKeyModel = "model"
	// StateKeyExecContext is the key of the execution context.
	StateKeyExecContext = "exec_context"
)

// State represents the state that flows through the graph.
// This is the shared data structure that flows between nodes.
type State map[string]any

// Clone creates a shallow copy of the state.
func (s State) Clone() State {
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Messages returns the message log stored in the state, or nil.
func (s State) Messages() []schema.Message {
	msgs, _ := s[StateKeyMessages].([]schema.Message)
	return msgs
}

// LastMessage returns the last message in the log and whether one exists.
func (s State) LastMessage() (schema.Message, bool) {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return schema.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// StateReducer is a function that determines how state updates are merged.
// It takes existing and new values and returns the merged result.
type StateReducer func(existing, update any) any

// StateField defines a field in the state schema with its type and reducer.
type StateField struct {
	Type     reflect.Type
	Reducer  StateReducer
	Default  func() any
	Required bool
}

// StateSchema defines the structure and behavior of graph state.
type StateSchema struct {
	mu     sync.RWMutex
	Fields map[string]StateField
}

// NewStateSchema creates a new state schema.
func NewStateSchema() *StateSchema {
	return &StateSchema{
		Fields: make(map[string]StateField),
	}
}

// AddField adds a field to the state schema.
func (s *StateSchema) AddField(name string, field StateField) *StateSchema {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field.Reducer == nil {
		field.Reducer = DefaultReducer
	}

	s.Fields[name] = field
	return s
}

// ApplyUpdate applies a state update using the defined reducers.
// Fields without a schema definition are overwritten.
func (s *StateSchema) ApplyUpdate(currentState State, update State) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := currentState.Clone()
	for key, updateValue := range update {
		field, exists := s.Fields[key]
		if !exists {
			result[key] = updateValue
			continue
		}
		currentValue, hasCurrentValue := result[key]
		if !hasCurrentValue && field.Default != nil {
			currentValue = field.Default()
		}
		result[key] = field.Reducer(currentValue, updateValue)
	}
	return result
}

// Validate validates a state against the schema.
func (s *StateSchema) Validate(state State) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, field := range s.Fields {
		value, exists := state[name]

		if field.Required && !exists {
			return fmt.Errorf("required field %s is missing", name)
		}

		if exists && value != nil {
			valueType := reflect.TypeOf(value)
			if !valueType.AssignableTo(field.Type) {
				return fmt.Errorf("field %s has wrong type: expected %v, got %v",
					name, field.Type, valueType)
			}
		}
	}
	return nil
}

// Common reducer functions.

// DefaultReducer overwrites the existing value with the update.
func DefaultReducer(existing, update any) any {
	return update
}

// MergeReducer merges update map into existing map.
func MergeReducer(existing, update any) any {
	if existing == nil {
		existing = make(map[string]any)
	}

	existingMap, ok1 := existing.(map[string]any)
	updateMap, ok2 := update.(map[string]any)

	if !ok1 || !ok2 {
		return update
	}

	result := make(map[string]any, len(existingMap)+len(updateMap))
	for k, v := range existingMap {
		result[k] = v
	}
	for k, v := range updateMap {
		result[k] = v
	}
	return result
}

// MessageReducer merges updates into the message log while keeping it
// append-only. Accepted update values:
//
//   - []schema.Message        appended to the log
//   - schema.Message          appended to the log
//   - schema.RemoveMessage    tombstones the matching message in place
//   - []schema.RemoveMessage  tombstones each matching message
//   - MessageOp / []MessageOp applied in order
//
// Anything else overwrites, matching DefaultReducer. Tombstoned messages
// keep their position; only their Removed flag changes.
func MessageReducer(existing, update any) any {
	existingMsgs, ok := existing.([]schema.Message)
	if existing != nil && !ok {
		return update
	}
	switch u := update.(type) {
	case []schema.Message:
		return append(existingMsgs, u...)
	case schema.Message:
		return append(existingMsgs, u)
	case schema.RemoveMessage:
		return tombstone(existingMsgs, u.ID)
	case []schema.RemoveMessage:
		for _, rm := range u {
			existingMsgs = tombstone(existingMsgs, rm.ID)
		}
		return existingMsgs
	case MessageOp:
		return u.Apply(existingMsgs)
	case []MessageOp:
		for _, op := range u {
			existingMsgs = op.Apply(existingMsgs)
		}
		return existingMsgs
	default:
		return update
	}
}

func tombstone(msgs []schema.Message, id string) []schema.Message {
	for i := range msgs {
		if msgs[i].ID == id {
			msgs[i].Removed = true
			break
		}
	}
	return msgs
}
