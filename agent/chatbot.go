package agent

import (
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
)

// NewChatbot creates the simplest possible agent: a single model node with
// no tools, answering directly from the conversation history.
func NewChatbot(llm model.Model, opts ...Option) (*Agent, error) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddLLMNode("model", llm, "", nil).
		SetEntryPoint("model").
		SetFinishPoint("model").
		Compile()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithDescription("A simple chatbot.")}, opts...)
	return New("chatbot", g, opts...)
}
