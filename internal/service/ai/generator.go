package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/luma/backend/internal/config"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
	"github.com/zhouzirui/luma/backend/internal/model/persona"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
)

// GenerateRequest 是一次回复生成所需的全部上下文。
type GenerateRequest struct {
	Persona     *persona.Persona
	History     []chat.Message
	UserMessage string
	Guidance    *emotionservice.Guidance
}

// Generator produces a single reply for a user turn.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StreamGenerator is implemented by providers that can emit partial output.
type StreamGenerator interface {
	Generator
	Stream(ctx context.Context, req GenerateRequest) (*schema.StreamReader[*schema.Message], error)
}

// NewGenerator 根据配置选择生成服务；ProviderNone 返回 nil。
func NewGenerator(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	var (
		gen Generator
		err error
	)

	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderArk:
		gen, err = NewArkGenerator(ctx, cfg.Ark, cfg.HistoryLimit)
	case config.ProviderOpenAI:
		gen, err = NewOpenAIGenerator(cfg.OpenAI, cfg.HistoryLimit)
	case config.ProviderGemini:
		gen, err = NewGeminiGenerator(ctx, cfg.Gemini, cfg.HistoryLimit)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s generator: %w", cfg.Provider, err)
	}

	log.Printf("[ai] generation provider=%s", gen.Name())
	return gen, nil
}

// recentHistory returns at most limit trailing messages.
func recentHistory(messages []chat.Message, limit int) []chat.Message {
	if limit <= 0 || len(messages) == 0 {
		return nil
	}
	if len(messages) > limit {
		return messages[len(messages)-limit:]
	}
	return messages
}
