package reply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
	"github.com/zhouzirui/luma/backend/internal/model/persona"
	"github.com/zhouzirui/luma/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
)

// ErrPersonaNotFound 表示会话绑定的角色不存在且没有默认角色。
var ErrPersonaNotFound = errors.New("persona not found")

// 回复来源。
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
	// SourcePartial 表示流式输出中途失败，仅保留了已发送的部分。
	SourcePartial = "partial"
)

// Reply is what a chat turn returns to the client.
type Reply struct {
	Response  string         `json:"response"`
	Emotion   analysis.Label `json:"emotion"`
	Candidate analysis.Label `json:"candidate,omitempty"`
	Source    string         `json:"source,omitempty"`
}

// Turn 保存一次对话轮次在生成前已经确定的上下文。
type Turn struct {
	Session     chat.Session
	Persona     persona.Persona
	History     []chat.Message
	UserMessage string
	Guidance    emotionservice.Guidance
}

// Options 控制回复服务。
type Options struct {
	Timeout time.Duration
}

// Service ties together emotion analysis, generation and the transcript.
type Service struct {
	store     chatservice.Store
	personas  persona.Store
	emotions  *emotionservice.Service
	generator ai.Generator
	timeout   time.Duration
	pick      func(n int) int
}

// NewService 创建回复服务；generator 为 nil 时只使用预设回复。
func NewService(store chatservice.Store, personas persona.Store, emotions *emotionservice.Service, generator ai.Generator, opts Options) *Service {
	return &Service{
		store:     store,
		personas:  personas,
		emotions:  emotions,
		generator: generator,
		timeout:   opts.Timeout,
		pick:      randomIndex,
	}
}

// Respond runs a whole non-streaming turn.
func (s *Service) Respond(ctx context.Context, sessionID, text string) (Reply, error) {
	turn, err := s.Prepare(ctx, sessionID, text)
	if err != nil {
		return Reply{}, err
	}

	response, source := s.Generate(ctx, turn)
	return s.Finish(ctx, turn, response, source), nil
}

// Prepare 校验会话、识别情绪并写入用户消息。
// 当记录末尾已经是同一条用户消息时不重复写入。
func (s *Service) Prepare(ctx context.Context, sessionID, text string) (*Turn, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p, ok := s.personas.FindByID(session.PersonaID)
	if !ok {
		if p, ok = s.personas.Default(); !ok {
			return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, session.PersonaID)
		}
	}

	history, err := s.store.LoadTranscript(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	guidance, err := s.emotions.Analyze(ctx, sessionID, p.OverrideProfile, text)
	if err != nil {
		return nil, err
	}

	if !hasMatchingUserMessage(history, sessionID, text) {
		if err := s.store.SaveMessage(ctx, chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderUser,
			Content:   text,
			Emotion:   string(guidance.Emotion),
		}); err != nil {
			log.Printf("[reply] failed to save user message: %v", err)
		}
	} else {
		history = history[:len(history)-1]
	}

	return &Turn{
		Session:     session,
		Persona:     p,
		History:     history,
		UserMessage: text,
		Guidance:    guidance,
	}, nil
}

// Generate asks the provider for a reply, falling back to a canned response.
func (s *Service) Generate(ctx context.Context, turn *Turn) (string, string) {
	if s.generator == nil {
		return s.Fallback(turn.Guidance.Emotion), SourceFallback
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.generator.Generate(ctx, s.request(turn))
	if err != nil {
		log.Printf("[reply] %s generation failed for session=%s: %v", s.generator.Name(), turn.Session.ID, err)
		return s.Fallback(turn.Guidance.Emotion), SourceFallback
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("[reply] %s returned empty text for session=%s", s.generator.Name(), turn.Session.ID)
		return s.Fallback(turn.Guidance.Emotion), SourceFallback
	}
	return text, SourceModel
}

// CanStream 表示当前生成服务是否支持流式输出。
func (s *Service) CanStream() bool {
	sg, ok := s.generator.(ai.StreamGenerator)
	if !ok {
		return false
	}
	if toggle, ok := sg.(interface{ StreamingEnabled() bool }); ok {
		return toggle.StreamingEnabled()
	}
	return true
}

// Stream emits partial output through onDelta and returns the full reply.
// Providers without streaming produce a single delta. The concatenated
// deltas always equal the returned text: leading whitespace is held back
// until real content arrives, and an interrupted stream that already sent
// content keeps it under SourcePartial.
func (s *Service) Stream(ctx context.Context, turn *Turn, onDelta func(string)) (string, string) {
	if !s.CanStream() {
		text, source := s.Generate(ctx, turn)
		onDelta(text)
		return text, source
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sg := s.generator.(ai.StreamGenerator)
	stream, err := sg.Stream(ctx, s.request(turn))
	if err != nil {
		log.Printf("[reply] %s stream failed for session=%s: %v", sg.Name(), turn.Session.ID, err)
		return s.streamFallback(turn, onDelta)
	}
	defer stream.Close()

	var (
		sent    strings.Builder
		pending strings.Builder
	)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if sent.Len() == 0 {
				log.Printf("[reply] %s stream failed before content for session=%s: %v", sg.Name(), turn.Session.ID, recvErr)
				return s.streamFallback(turn, onDelta)
			}
			log.Printf("[reply] %s stream interrupted for session=%s after %d bytes, keeping partial reply: %v", sg.Name(), turn.Session.ID, sent.Len(), recvErr)
			return sent.String(), SourcePartial
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		if sent.Len() == 0 && strings.TrimSpace(pending.String()+chunk.Content) == "" {
			pending.WriteString(chunk.Content)
			continue
		}
		delta := pending.String() + chunk.Content
		pending.Reset()
		sent.WriteString(delta)
		onDelta(delta)
	}

	if sent.Len() == 0 {
		log.Printf("[reply] %s streamed empty text for session=%s", sg.Name(), turn.Session.ID)
		return s.streamFallback(turn, onDelta)
	}
	return sent.String(), SourceModel
}

func (s *Service) streamFallback(turn *Turn, onDelta func(string)) (string, string) {
	text := s.Fallback(turn.Guidance.Emotion)
	onDelta(text)
	return text, SourceFallback
}

// Finish 保存助手回复并返回结果。
func (s *Service) Finish(ctx context.Context, turn *Turn, response, source string) Reply {
	if err := s.store.SaveMessage(ctx, chat.Message{
		SessionID: turn.Session.ID,
		Sender:    chat.SenderAssistant,
		Content:   response,
		Emotion:   string(turn.Guidance.Emotion),
	}); err != nil {
		log.Printf("[reply] failed to save assistant message: %v", err)
	}

	log.Printf("[reply] session=%s persona=%s emotion=%s source=%s", turn.Session.ID, turn.Persona.ID, turn.Guidance.Emotion, source)
	return Reply{
		Response:  response,
		Emotion:   turn.Guidance.Emotion,
		Candidate: turn.Guidance.Candidate,
		Source:    source,
	}
}

// Fallback picks a canned response for the label.
func (s *Service) Fallback(label analysis.Label) string {
	pool := CannedResponses(label)
	return pool[s.pick(len(pool))]
}

func (s *Service) request(turn *Turn) ai.GenerateRequest {
	guidance := turn.Guidance
	return ai.GenerateRequest{
		Persona:     &turn.Persona,
		History:     turn.History,
		UserMessage: turn.UserMessage,
		Guidance:    &guidance,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	return last.SessionID == sessionID && last.Sender == chat.SenderUser && last.Content == content
}
