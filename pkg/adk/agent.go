package adk

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// DefaultMaxSteps bounds the tool calls answered for a single user message.
const DefaultMaxSteps = 8

var ErrTooManySteps = errors.New("agent: tool call limit reached")

// Tool represents an executable action for the agent
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error)
	Schema() map[string]interface{} // JSON schema for arguments
}

// ToolCall represents a request from the LLM to execute a tool
type ToolCall struct {
	ToolName string
	Args     map[string]interface{}
}

const (
	RoleSystem   = "system"
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
)

// Message represents a chat message
type Message struct {
	Role    string
	Content string
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Agent is the core ADK agent
type Agent struct {
	llm          LLMProvider
	tools        map[string]Tool
	history      []Message
	systemPrompt string
	logger       hclog.Logger
	MaxSteps     int
}

// NewAgent creates a new agent with the given LLM provider. A nil logger
// discards output.
func NewAgent(llm LLMProvider, logger hclog.Logger) *Agent {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Agent{
		llm:      llm,
		tools:    make(map[string]Tool),
		logger:   logger,
		MaxSteps: DefaultMaxSteps,
	}
}

// SetSystemPrompt sets the instructions sent ahead of the conversation.
func (a *Agent) SetSystemPrompt(prompt string) {
	a.systemPrompt = prompt
}

// RegisterTool adds a tool to the agent's registry
func (a *Agent) RegisterTool(t Tool) {
	a.tools[t.Name()] = t
}

// Tools returns the registered tools sorted by name.
func (a *Agent) Tools() []Tool {
	names := make([]string, 0, len(a.tools))
	for n := range a.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Tool, len(names))
	for i, n := range names {
		out[i] = a.tools[n]
	}
	return out
}

// History returns the conversation so far, without the system prompt.
func (a *Agent) History() []Message {
	return append([]Message(nil), a.history...)
}

// Reset clears the conversation.
func (a *Agent) Reset() {
	a.history = nil
}

func (a *Agent) messages() []Message {
	if a.systemPrompt == "" {
		return a.history
	}
	return append([]Message{{Role: RoleSystem, Content: a.systemPrompt}}, a.history...)
}

// Chat sends a message to the agent and returns the response
func (a *Agent) Chat(ctx context.Context, input string, progress func(string)) (string, error) {
	a.history = append(a.history, Message{Role: RoleUser, Content: input})
	if progress == nil {
		progress = func(string) {}
	}

	maxSteps := a.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	toolList := a.Tools()

	for step := 0; ; step++ {
		respText, toolCall, err := a.llm.GenerateResponse(ctx, a.messages(), toolList)
		if err != nil {
			return "", err
		}

		if toolCall == nil {
			a.history = append(a.history, Message{Role: RoleModel, Content: respText})
			return respText, nil
		}
		if step >= maxSteps {
			a.logger.Warn("tool call limit reached", "steps", step)
			return "", ErrTooManySteps
		}

		a.logger.Debug("executing tool", "tool", toolCall.ToolName, "args", toolCall.Args)
		a.history = append(a.history, Message{
			Role:    RoleModel,
			Content: fmt.Sprintf("I will call tool %s with args %v", toolCall.ToolName, toolCall.Args),
		})

		tool, exists := a.tools[toolCall.ToolName]
		if !exists {
			a.logger.Warn("unknown tool requested", "tool", toolCall.ToolName)
			a.history = append(a.history, Message{Role: RoleFunction, Content: fmt.Sprintf("Error: Tool %s not found", toolCall.ToolName)})
			continue
		}

		result, err := tool.Execute(ctx, toolCall.Args, progress)
		if err != nil {
			a.logger.Error("tool failed", "tool", toolCall.ToolName, "error", err)
			result = fmt.Sprintf("Error executing tool: %v", err)
		}

		a.history = append(a.history, Message{
			Role:    RoleFunction,
			Content: fmt.Sprintf("Tool %s returned: %s", toolCall.ToolName, result),
		})
	}
}
