// Package ai is the dialogue-generation collaborator boundary. It never
// computes scheduling facts itself; resolved values arrive on the fact
// sheet and the model is instructed to repeat them exactly.
package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/tarabot/scheduler/backend/internal/config"
	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
)

// Service wraps the chat model behind a prompt/model chain.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
	now       func() time.Time
}

// NewService compiles the dialogue chain against the configured model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dialogue chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
		now:       time.Now,
	}, nil
}

// StreamingEnabled indicates whether SSE streaming output is on.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// PromptState carries everything the prompt builder needs for one turn.
type PromptState struct {
	Sheet         facts.Sheet
	ReadyToBook   bool
	AmbiguousTime bool
}

// GenerateReply produces the assistant reply for the transcript.
func (s *Service) GenerateReply(ctx context.Context, conversationID string, turns []convo.Turn, state PromptState) (string, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(turns, state))
	if err != nil {
		return "", fmt.Errorf("failed to run dialogue chain: %w", err)
	}

	log.Printf("[ai] generated reply for conversation=%s length=%d", conversationID, len(response.Content))
	return response.Content, nil
}

// StreamReply streams reply chunks via the configured chain.
func (s *Service) StreamReply(ctx context.Context, turns []convo.Turn, state PromptState) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(turns, state))
	if err != nil {
		return nil, fmt.Errorf("failed to stream dialogue chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(turns []convo.Turn, state PromptState) map[string]any {
	history, query := splitHistory(turns)
	return map[string]any{
		"system":  BuildSystemPrompt(s.now().UTC(), state),
		"history": history,
		"query":   query,
	}
}

// splitHistory converts the transcript into model messages, holding the
// latest user turn out as the query.
func splitHistory(turns []convo.Turn) ([]*schema.Message, string) {
	const historyLimit = 20

	query := convo.LatestUser(turns)
	lastUser := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == convo.RoleUser {
			lastUser = i
			break
		}
	}

	start := 0
	if lastUser > historyLimit {
		start = lastUser - historyLimit
	}

	history := make([]*schema.Message, 0, historyLimit)
	for i := start; i < len(turns); i++ {
		if i == lastUser {
			continue
		}
		switch turns[i].Role {
		case convo.RoleUser:
			history = append(history, schema.UserMessage(turns[i].Content))
		case convo.RoleAssistant:
			history = append(history, schema.AssistantMessage(turns[i].Content, nil))
		}
	}

	return history, query
}
