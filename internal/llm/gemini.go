package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/polisbot/polisbot/internal/agent/domain"
	"github.com/polisbot/polisbot/internal/config"
	convdomain "github.com/polisbot/polisbot/internal/conversation/domain"
	"google.golang.org/genai"
)

// GeminiClient implements the dialogue port on the Gemini API with function
// calling.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, cfg config.Config) (*GeminiClient, error) {
	if cfg.Dialogue.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}

	modelName := cfg.Dialogue.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Dialogue.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiClient) StartTurn(ctx context.Context, req domain.TurnRequest) (*domain.ModelReply, domain.TurnSession, error) {
	temp := float32(0.4)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		Tools:             buildTools(req.Tools),
	}

	chat, err := g.client.Chats.Create(ctx, g.modelName, cfg, buildHistory(req.History))
	if err != nil {
		return nil, nil, fmt.Errorf("gemini chat create: %w", err)
	}

	res, err := chat.SendMessage(ctx, genai.Part{Text: req.Message})
	if err != nil {
		return nil, nil, fmt.Errorf("gemini send message: %w", err)
	}

	reply, err := toReply(res)
	if err != nil {
		return nil, nil, err
	}
	return reply, &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) Continue(ctx context.Context, call domain.ToolCall, result map[string]any) (*domain.ModelReply, error) {
	res, err := s.chat.SendMessage(ctx, genai.Part{
		FunctionResponse: &genai.FunctionResponse{
			Name:     call.Name,
			Response: result,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini function response: %w", err)
	}
	return toReply(res)
}

func toReply(res *genai.GenerateContentResponse) (*domain.ModelReply, error) {
	if calls := res.FunctionCalls(); len(calls) > 0 {
		return &domain.ModelReply{
			ToolCall: &domain.ToolCall{
				Name: calls[0].Name,
				Args: calls[0].Args,
			},
		}, nil
	}

	text := res.Text()
	if text == "" {
		return nil, domain.ErrEmptyReply
	}
	return &domain.ModelReply{Text: text}, nil
}

// buildHistory renders stored turns as Gemini contents. System notes and tool
// exchanges are folded into text so the model sees them without the provider
// needing our storage schema.
func buildHistory(entries []domain.HistoryEntry) []*genai.Content {
	var contents []*genai.Content
	for _, e := range entries {
		switch e.Role {
		case convdomain.RoleUser:
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleUser))
		case convdomain.RoleAssistant:
			if e.ToolName != "" {
				contents = append(contents, genai.NewContentFromText(
					fmt.Sprintf("[called %s with %s]", e.ToolName, e.Content), genai.RoleModel))
				continue
			}
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleModel))
		case convdomain.RoleTool:
			contents = append(contents, genai.NewContentFromText(
				fmt.Sprintf("[%s returned %s]", e.ToolName, e.Content), genai.RoleUser))
		case convdomain.RoleSystem:
			contents = append(contents, genai.NewContentFromText("[system] "+e.Content, genai.RoleUser))
		}
	}
	return contents
}

func buildTools(specs []domain.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]*genai.Schema, len(spec.Params))
		var required []string
		for _, p := range spec.Params {
			properties[p.Name] = &genai.Schema{
				Type:        schemaType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaType(t string) genai.Type {
	switch strings.ToLower(t) {
	case "number":
		return genai.TypeNumber
	case "object":
		return genai.TypeObject
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
