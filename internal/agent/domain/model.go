package domain

import (
	"context"
	"errors"
)

// HistoryEntry is one prior turn handed to the dialogue model.
type HistoryEntry struct {
	Role     string
	Content  string
	ToolName string
}

// TurnRequest opens a model turn for one inbound message.
type TurnRequest struct {
	System  string
	History []HistoryEntry
	Message string
	Tools   []ToolSpec
}

// ToolCall is the model asking for exactly one function invocation.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ModelReply is a sum: either Text is set, or ToolCall is set, never both.
type ModelReply struct {
	Text     string
	ToolCall *ToolCall
}

// ToolSpec declares a callable function to the model. Parameters form a flat
// object schema.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

type ToolParam struct {
	Name        string
	Type        string // string | number | object
	Description string
	Required    bool
}

// TurnSession carries the model-side state of an open turn so a tool result
// can be fed back for the closing reply.
type TurnSession interface {
	Continue(ctx context.Context, call ToolCall, result map[string]any) (*ModelReply, error)
}

// DialogueClient is the conversational model behind the agent.
type DialogueClient interface {
	StartTurn(ctx context.Context, req TurnRequest) (*ModelReply, TurnSession, error)
}

var (
	ErrEmptyReply = errors.New("empty_model_reply")
)
