package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/luma/backend/internal/config"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
)

// ArkGenerator runs a prompt -> chat model chain on Volcengine Ark.
type ArkGenerator struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
	streaming    bool
}

// NewArkGenerator compiles the chat chain for the configured Ark model.
func NewArkGenerator(ctx context.Context, cfg config.AIConfig, historyLimit int) (*ArkGenerator, error) {
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
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{
		chain:        runnable,
		historyLimit: historyLimit,
		streaming:    cfg.StreamResponse,
	}, nil
}

func (g *ArkGenerator) Name() string { return config.ProviderArk }

// StreamingEnabled 指示是否开启流式输出。
func (g *ArkGenerator) StreamingEnabled() bool {
	return g.streaming
}

func (g *ArkGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	response, err := g.chain.Invoke(ctx, g.chainInput(req))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] ark generated response length=%d", len(response.Content))
	return response.Content, nil
}

func (g *ArkGenerator) Stream(ctx context.Context, req GenerateRequest) (*schema.StreamReader[*schema.Message], error) {
	if !g.streaming {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := g.chain.Stream(ctx, g.chainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (g *ArkGenerator) chainInput(req GenerateRequest) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(req.Persona, req.Guidance),
		"history": historyMessages(recentHistory(req.History, g.historyLimit)),
		"query":   BuildUserPrompt(req.Persona, req.UserMessage, requestLabel(req)),
	}
}

func historyMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
