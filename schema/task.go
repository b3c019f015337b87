package schema

// Task lifecycle states.
const (
	TaskStateNew      = "new"
	TaskStateRunning  = "running"
	TaskStateComplete = "complete"
)

// Task results.
const (
	TaskResultSuccess = "success"
	TaskResultError   = "error"
)

// TaskData is the payload of a background task progress update, dispatched
// to clients as a custom message.
type TaskData struct {
	Name   string         `json:"name"`
	RunID  string         `json:"run_id"`
	State  string         `json:"state"`
	Result string         `json:"result,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Payload renders the task data as a custom message payload.
func (t TaskData) Payload() map[string]any {
	payload := map[string]any{
		"name":   t.Name,
		"run_id": t.RunID,
		"state":  t.State,
	}
	if t.Result != "" {
		payload["result"] = t.Result
	}
	if t.Data != nil {
		payload["data"] = t.Data
	}
	return payload
}
