package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/zhouzirui/luma/backend/internal/config"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
)

// GeminiGenerator calls Google Gemini through the genai SDK.
type GeminiGenerator struct {
	client       *genai.Client
	model        string
	historyLimit int
}

func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig, historyLimit int) (*GeminiGenerator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("GOOGLE_API_KEY or GEMINI_MODEL missing")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, historyLimit: historyLimit}, nil
}

func (g *GeminiGenerator) Name() string { return config.ProviderGemini }

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents := geminiContents(recentHistory(req.History, g.historyLimit))
	contents = append(contents, genai.NewContentFromText(
		BuildUserPrompt(req.Persona, req.UserMessage, requestLabel(req)),
		genai.RoleUser,
	))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(req.Persona, req.Guidance), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(result.String())
	log.Printf("[ai] gemini generated response length=%d", len(text))
	return text, nil
}

func geminiContents(messages []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages)+1)
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case chat.SenderAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}
	return contents
}
