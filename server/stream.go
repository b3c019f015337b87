package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/log"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/server/agui"
)

// streamProtocolAGUI selects the AG-UI style event framing.
const streamProtocolAGUI = "agui"

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var input schema.StreamInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateUserInput(&input.UserInput); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := s.resolveAgent(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	runInput, err := s.buildRunInput(&input.UserInput)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := a.Stream(r.Context(), runInput)
	if err != nil {
		log.Errorf("stream failed for agent %s: %v", a.Info().Name, err)
		s.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if input.StreamProtocol == streamProtocolAGUI {
		streamAGUI(w, flusher, events, runInput.ThreadID, runInput.RunID)
		return
	}
	encoder := newStreamEncoder(input.Message, input.TokenStreamingEnabled())
	for evt := range events {
		for _, frame := range encoder.frames(evt) {
			if err := writeFrame(w, flusher, frame); err != nil {
				return
			}
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// streamFrame is one Protocol A SSE payload.
type streamFrame struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// writeFrame writes one SSE data line and flushes it.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame streamFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// streamEncoder converts execution events into Protocol A frames: full
// messages, token increments and recoverable errors.
type streamEncoder struct {
	inputMessage string
	streamTokens bool
	echoDropped  bool
	framedIDs    map[string]struct{}
}

func newStreamEncoder(inputMessage string, streamTokens bool) *streamEncoder {
	return &streamEncoder{
		inputMessage: inputMessage,
		streamTokens: streamTokens,
		framedIDs:    make(map[string]struct{}),
	}
}

// frames converts one event into zero or more frames. Conversion failures
// become error frames; they never terminate the stream.
func (e *streamEncoder) frames(evt *event.Event) []streamFrame {
	if evt == nil || evt.Response == nil {
		return nil
	}
	if evt.Error != nil {
		return []streamFrame{{Type: "error", Content: evt.Error.Message}}
	}
	switch evt.Object {
	case model.ObjectTypeChatCompletionChunk:
		if !e.streamTokens || len(evt.Choices) == 0 {
			return nil
		}
		if delta := evt.Choices[0].Delta.Content; delta != "" {
			return []streamFrame{{Type: "token", Content: delta}}
		}
		return nil
	case model.ObjectTypeChatCompletion,
		model.ObjectTypeToolResponse,
		model.ObjectTypeCustom,
		model.ObjectTypeInterrupt,
		model.ObjectTypeRunnerCompletion:
		return e.messageFrames(evt)
	default:
		return nil
	}
}

// messageFrames renders the messages carried by an event. The triggering
// human input is suppressed if an execution layer echoes it back, and a
// message already framed under the same ID is not framed again, so the run
// completion does not duplicate the final streamed answer.
func (e *streamEncoder) messageFrames(evt *event.Event) []streamFrame {
	var frames []streamFrame
	for _, choice := range evt.Choices {
		msg := choice.Message
		if msg.Role == "" {
			continue
		}
		if msg.Role == schema.RoleHuman && !e.echoDropped && msg.Content == e.inputMessage {
			e.echoDropped = true
			continue
		}
		if msg.ID != "" {
			if _, seen := e.framedIDs[msg.ID]; seen {
				continue
			}
			e.framedIDs[msg.ID] = struct{}{}
		}
		chatMessage, err := schema.ToChatMessage(msg)
		if err != nil {
			frames = append(frames, streamFrame{
				Type:    "error",
				Content: fmt.Sprintf("failed to serialize message: %v", err),
			})
			continue
		}
		if chatMessage.RunID == "" {
			chatMessage.RunID = evt.RunID
		}
		frames = append(frames, streamFrame{Type: "message", Content: chatMessage})
	}
	return frames
}

// streamAGUI streams execution events in the AG-UI framing.
func streamAGUI(w http.ResponseWriter, flusher http.Flusher, events <-chan *event.Event, threadID, runID string) {
	writer := agui.NewSSEWriter(w, flusher)
	translator := agui.NewTranslator(threadID, runID)
	_ = writer.Write(agui.NewRunStartedEvent(threadID, runID))
	for evt := range events {
		translated, err := translator.Translate(evt)
		if err != nil {
			_ = writer.Write(agui.NewRunErrorEvent(runID, err.Error()))
			continue
		}
		for _, aguiEvent := range translated {
			if err := writer.Write(aguiEvent); err != nil {
				return
			}
		}
	}
	_ = writer.Write(agui.NewRunFinishedEvent(threadID, runID))
}
