// =================================
// File: internal/bot/persona.go
// =================================
package bot

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"solana-wallet-report/internal/config"
)

const defaultPersonaStyle = "be neutral and friendly"

// PersonaChat relays free-form chat messages to an OpenAI-compatible
// completion API with a per-user persona prompt. Alias rotation state lives
// here, keyed per user, never in package globals.
type PersonaChat struct {
	client   *openai.Client
	model    string
	personas map[int64]config.Persona
	logger   *zap.Logger

	mu       sync.Mutex
	aliasIdx map[int64]int
}

func NewPersonaChat(cfg *config.Config, logger *zap.Logger) *PersonaChat {
	clientCfg := openai.DefaultConfig(cfg.GroqAPIKey)
	if cfg.GroqBaseURL != "" {
		clientCfg.BaseURL = cfg.GroqBaseURL
	}

	personas := make(map[int64]config.Persona, len(cfg.Personas))
	for _, p := range cfg.Personas {
		personas[p.UserID] = p
	}

	return &PersonaChat{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.GroqModel,
		personas: personas,
		logger:   logger,
		aliasIdx: make(map[int64]int),
	}
}

// Known reports whether a persona is configured for the user.
func (pc *PersonaChat) Known(userID int64) bool {
	_, ok := pc.personas[userID]
	return ok
}

// Reply produces the persona-flavored completion for one message.
func (pc *PersonaChat) Reply(ctx context.Context, userID int64, text string) (string, error) {
	alias, style := pc.nextAlias(userID)

	systemPrompt := fmt.Sprintf(
		"You are a witty Telegram chat bot. Address the user as %q. %s", alias, style)

	resp, err := pc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: pc.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	pc.logger.Debug("💬 Persona reply generated",
		zap.Int64("user_id", userID),
		zap.String("alias", alias))

	return resp.Choices[0].Message.Content, nil
}

// nextAlias rotates through the user's configured aliases round-robin.
func (pc *PersonaChat) nextAlias(userID int64) (alias, style string) {
	persona, ok := pc.personas[userID]
	if !ok || len(persona.Aliases) == 0 {
		return "friend", defaultPersonaStyle
	}

	pc.mu.Lock()
	idx := pc.aliasIdx[userID]
	pc.aliasIdx[userID] = idx + 1
	pc.mu.Unlock()

	return persona.Aliases[idx%len(persona.Aliases)], persona.Style
}
