package agent

import (
	"context"
	"encoding/json"

	"github.com/polisbot/polisbot/internal/agent/domain"
	"github.com/polisbot/polisbot/internal/observability"
	"github.com/polisbot/polisbot/internal/providers/messaging"
	"github.com/polisbot/polisbot/internal/userlock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	convdomain "github.com/polisbot/polisbot/internal/conversation/domain"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
)

const historyLimit = 40

const retryMessage = "Sorry, something went wrong on our side. Please send your message again in a moment."

// Orchestrator runs one inbound chat message through the dialogue model,
// executing at most one tool call per turn.
type Orchestrator struct {
	log           *zap.Logger
	users         userdomain.Service
	conversations convdomain.Service
	products      productdomain.Service
	dispatcher    *Dispatcher
	dialogue      domain.DialogueClient
	messaging     messaging.Provider
	locker        userlock.Locker
	metrics       *observability.Metrics
}

type Params struct {
	fx.In

	Log           *zap.Logger
	Users         userdomain.Service
	Conversations convdomain.Service
	Products      productdomain.Service
	Dispatcher    *Dispatcher
	Dialogue      domain.DialogueClient
	Messaging     messaging.Provider
	Locker        userlock.Locker
	Metrics       *observability.Metrics
}

func NewOrchestrator(p Params) *Orchestrator {
	return &Orchestrator{
		log:           p.Log.Named("agent.orchestrator"),
		users:         p.Users,
		conversations: p.Conversations,
		products:      p.Products,
		dispatcher:    p.Dispatcher,
		dialogue:      p.Dialogue,
		messaging:     p.Messaging,
		locker:        p.Locker,
		metrics:       p.Metrics,
	}
}

// HandleInbound processes one customer message end to end. Messages from the
// same user are serialized; the whole exchange is persisted only when the
// turn completes.
func (o *Orchestrator) HandleInbound(ctx context.Context, externalID, text string) error {
	release, err := o.locker.Acquire(ctx, externalID)
	if err != nil {
		return o.recoverSend(ctx, externalID, err)
	}
	defer release()

	user, err := o.users.EnsureByExternalID(ctx, externalID)
	if err != nil {
		return o.recoverSend(ctx, externalID, err)
	}
	conv, isNew, err := o.conversations.EnsureForUser(ctx, user.ID)
	if err != nil {
		return o.recoverSend(ctx, externalID, err)
	}

	entries := []convdomain.TurnEntry{
		{Role: convdomain.RoleUser, Content: text},
	}

	history, err := o.conversations.History(ctx, conv.ID, historyLimit)
	if err != nil {
		return o.recoverSend(ctx, externalID, err)
	}
	modelHistory := toModelHistory(history)

	if isNew {
		if product, matchErr := o.products.MatchKeyword(ctx, text); matchErr == nil {
			instruction := productInstruction(product)
			entries = append(entries, convdomain.TurnEntry{Role: convdomain.RoleSystem, Content: instruction})
			modelHistory = append(modelHistory, domain.HistoryEntry{Role: convdomain.RoleSystem, Content: instruction})
		}
	}

	reply, session, err := o.dialogue.StartTurn(ctx, domain.TurnRequest{
		System:  systemPrompt,
		History: modelHistory,
		Message: text,
		Tools:   o.dispatcher.Specs(),
	})
	if err != nil {
		return o.recoverSend(ctx, externalID, err)
	}

	quotedPremium := false
	if reply.ToolCall != nil {
		call := *reply.ToolCall
		result, outcome := o.dispatcher.Dispatch(ctx, user, call)
		o.metrics.ToolCalls.WithLabelValues(call.Name, outcome).Inc()
		if call.Name == toolCalculatePremium && outcome == "ok" {
			quotedPremium = true
		}

		argsJSON, _ := json.Marshal(call.Args)
		resultJSON, _ := json.Marshal(result)
		entries = append(entries,
			convdomain.TurnEntry{Role: convdomain.RoleAssistant, Content: string(argsJSON), ToolName: call.Name},
			convdomain.TurnEntry{Role: convdomain.RoleTool, Content: string(resultJSON), ToolName: call.Name},
		)

		reply, err = session.Continue(ctx, call, result)
		if err != nil {
			return o.recoverSend(ctx, externalID, err)
		}
	}

	if reply == nil || reply.Text == "" {
		return o.recoverSend(ctx, externalID, domain.ErrEmptyReply)
	}

	final := postprocessReply(reply.Text, quotedPremium)
	entries = append(entries, convdomain.TurnEntry{Role: convdomain.RoleAssistant, Content: final})

	if err := o.conversations.AppendTurns(ctx, conv.ID, entries); err != nil {
		return o.recoverSend(ctx, externalID, err)
	}

	if err := o.messaging.SendText(ctx, externalID, final); err != nil {
		o.log.Warn("reply delivery failed", zap.String("external_id", externalID), zap.Error(err))
	}

	o.metrics.MessagesProcessed.Inc()
	return nil
}

func (o *Orchestrator) recoverSend(ctx context.Context, externalID string, err error) error {
	o.log.Error("inbound message failed",
		zap.String("external_id", externalID),
		zap.Error(err),
	)
	if sendErr := o.messaging.SendText(ctx, externalID, retryMessage); sendErr != nil {
		o.log.Warn("retry prompt delivery failed", zap.Error(sendErr))
	}
	return err
}

func toModelHistory(turns []convdomain.Turn) []domain.HistoryEntry {
	entries := make([]domain.HistoryEntry, 0, len(turns))
	for _, t := range turns {
		entries = append(entries, domain.HistoryEntry{
			Role:     t.Role,
			Content:  t.Content,
			ToolName: t.ToolName,
		})
	}
	return entries
}
