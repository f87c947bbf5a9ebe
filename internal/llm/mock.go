package llm

import (
	"context"
	"errors"

	"github.com/polisbot/polisbot/internal/agent/domain"
)

// ScriptStep is one StartTurn outcome; Continuation answers the follow-up
// after a tool result.
type ScriptStep struct {
	Reply        *domain.ModelReply
	Continuation *domain.ModelReply
}

// ScriptedClient replays a fixed sequence of model replies and records what
// it was asked.
type ScriptedClient struct {
	Steps []ScriptStep

	Requests    []domain.TurnRequest
	ToolResults []map[string]any

	next int
}

func (c *ScriptedClient) StartTurn(ctx context.Context, req domain.TurnRequest) (*domain.ModelReply, domain.TurnSession, error) {
	c.Requests = append(c.Requests, req)
	if c.next >= len(c.Steps) {
		return nil, nil, errors.New("script exhausted")
	}
	step := c.Steps[c.next]
	c.next++
	return step.Reply, &scriptedSession{client: c, step: step}, nil
}

type scriptedSession struct {
	client *ScriptedClient
	step   ScriptStep
}

func (s *scriptedSession) Continue(ctx context.Context, call domain.ToolCall, result map[string]any) (*domain.ModelReply, error) {
	s.client.ToolResults = append(s.client.ToolResults, result)
	if s.step.Continuation == nil {
		return nil, errors.New("no continuation scripted")
	}
	return s.step.Continuation, nil
}
