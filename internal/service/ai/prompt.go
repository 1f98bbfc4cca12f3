package ai

import (
	"fmt"
	"strings"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	"github.com/zhouzirui/luma/backend/internal/model/persona"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
)

// BuildSystemPrompt 构建角色设定以及情绪指引。
func BuildSystemPrompt(p *persona.Persona, guidance *emotionservice.Guidance) string {
	var builder strings.Builder
	if p == nil {
		builder.WriteString("You are a compassionate mental health companion.")
	} else {
		fmt.Fprintf(&builder, "You are a compassionate mental health companion named %s.", p.Name)
		if p.Tone != "" {
			fmt.Fprintf(&builder, " Your tone is %s.", p.Tone)
		}
		if p.PromptHint != "" {
			builder.WriteString(" ")
			builder.WriteString(p.PromptHint)
		}
	}

	builder.WriteString("\nKeep every reply supportive and empathetic, at most 2-3 sentences.")

	if guidance != nil && guidance.Style != "" {
		builder.WriteString("\nReply style: ")
		builder.WriteString(guidance.Style)
	}
	if p != nil && p.HideEmotionLabel {
		builder.WriteString("\nDo not explicitly mention the internal label.")
	}
	return builder.String()
}

// BuildUserPrompt wraps the user's text together with the detected label.
func BuildUserPrompt(p *persona.Persona, userMessage string, label analysis.Label) string {
	if label == "" {
		label = analysis.Unknown
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "The user says: '%s'. ", userMessage)
	fmt.Fprintf(&builder, "My internal emotion detection model has identified the user's emotion as '%s'. ", label)
	if p != nil && p.HideEmotionLabel {
		builder.WriteString("Please analyze the text yourself. If the text clearly conveys a different emotion that contradicts the internal label, prioritize your own analysis. ")
		builder.WriteString("Provide a supportive, empathetic response (max 2-3 sentences) appropriate for the user's actual emotion.")
	} else {
		builder.WriteString("However, please analyze the text yourself. If the text clearly conveys a different emotion (especially negative ones like anger or sadness) that contradicts the internal label, ")
		builder.WriteString("prioritize your own analysis and provide a supportive, empathetic response (max 2-3 sentences) appropriate for the actual emotion.")
	}
	return builder.String()
}

func requestLabel(req GenerateRequest) analysis.Label {
	if req.Guidance == nil {
		return analysis.Unknown
	}
	return req.Guidance.Emotion
}
