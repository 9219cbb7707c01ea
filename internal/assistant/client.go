package assistant

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Role of a thread message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleCode      Role = "code"
)

// Message is one entry in a thread's append-only transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RunStatus is the remote lifecycle status of a run.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "in_progress"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
	StatusExpired    RunStatus = "expired"
	StatusCancelled  RunStatus = "cancelled"
)

// Terminal reports whether the status will never change again.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// RunState is a snapshot of a run's status plus its error detail, if any.
type RunState struct {
	Status      RunStatus
	ErrorDetail string
}

// RunConfig selects the assistant configuration a run executes under.
// ResponseFormat, when set, constrains the model's reply to a declared
// schema (structured output).
type RunConfig struct {
	AssistantID    string
	Instructions   string
	ResponseFormat any
}

// Client is the thin wrapper over the remote conversational-AI service.
// Implementations hold no local conversation state; every call reads or
// mutates state on the provider side.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AppendMessage(ctx context.Context, threadID string, role Role, content string) error
	CreateRun(ctx context.Context, threadID string, cfg RunConfig) (string, error)
	GetRunStatus(ctx context.Context, threadID, runID string) (RunState, error)
	// ListMessages returns the thread transcript newest-first, matching the
	// provider's convention. Callers take index 0 for the latest message.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
	RetrieveAssistant(ctx context.Context, assistantID string) error
}

// OpenAIClient implements Client against the OpenAI Assistants API.
type OpenAIClient struct {
	api *openai.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{api: openai.NewClient(apiKey)}
}

func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", &RemoteServiceError{Op: "create_thread", Err: err}
	}
	return thread.ID, nil
}

func (c *OpenAIClient) AppendMessage(ctx context.Context, threadID string, role Role, content string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(role),
		Content: content,
	})
	if err != nil {
		return &RemoteServiceError{Op: "append_message", Err: err}
	}
	return nil
}

func (c *OpenAIClient) CreateRun(ctx context.Context, threadID string, cfg RunConfig) (string, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:    cfg.AssistantID,
		Instructions:   cfg.Instructions,
		ResponseFormat: cfg.ResponseFormat,
	})
	if err != nil {
		return "", &RemoteServiceError{Op: "create_run", Err: err}
	}
	return run.ID, nil
}

func (c *OpenAIClient) GetRunStatus(ctx context.Context, threadID, runID string) (RunState, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return RunState{}, &RemoteServiceError{Op: "get_run_status", Err: err}
	}

	state := RunState{Status: RunStatus(run.Status)}
	if run.LastError != nil {
		state.ErrorDetail = run.LastError.Message
	}
	return state, nil
}

func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	list, err := c.api.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, &RemoteServiceError{Op: "list_messages", Err: err}
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		messages = append(messages, Message{
			Role:    Role(m.Role),
			Content: firstTextContent(m),
		})
	}
	return messages, nil
}

func (c *OpenAIClient) RetrieveAssistant(ctx context.Context, assistantID string) error {
	if _, err := c.api.RetrieveAssistant(ctx, assistantID); err != nil {
		return &RemoteServiceError{Op: "retrieve_assistant", Err: err}
	}
	return nil
}

func firstTextContent(m openai.Message) string {
	for _, part := range m.Content {
		if part.Text != nil {
			return part.Text.Value
		}
	}
	return ""
}
