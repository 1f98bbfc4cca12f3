package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/zhouzirui/luma/backend/internal/config"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
)

// OpenAIGenerator calls the OpenAI Responses API.
type OpenAIGenerator struct {
	client          *openai.Client
	model           string
	maxOutputTokens int64
	historyLimit    int
}

func NewOpenAIGenerator(cfg config.OpenAIConfig, historyLimit int) (*OpenAIGenerator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY or OPENAI_MODEL missing")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIGenerator{
		client:          &client,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		historyLimit:    historyLimit,
	}, nil
}

func (g *OpenAIGenerator) Name() string { return config.ProviderOpenAI }

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := g.client.Responses.New(ctx, g.params(req))
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}

	text := strings.TrimSpace(resp.OutputText())
	log.Printf("[ai] openai generated response length=%d", len(text))
	return text, nil
}

func (g *OpenAIGenerator) params(req GenerateRequest) responses.ResponseNewParams {
	history := recentHistory(req.History, g.historyLimit)
	items := make([]responses.ResponseInputItemUnionParam, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Sender {
		case chat.SenderUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		case chat.SenderAssistant:
			items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		}
	}
	items = append(items, responses.ResponseInputItemParamOfMessage(
		BuildUserPrompt(req.Persona, req.UserMessage, requestLabel(req)),
		responses.EasyInputMessageRoleUser,
	))

	params := responses.ResponseNewParams{
		Model:        g.model,
		Instructions: openai.String(BuildSystemPrompt(req.Persona, req.Guidance)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	}
	if g.maxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(g.maxOutputTokens)
	}
	return params
}
