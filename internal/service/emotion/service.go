package emotion

import (
	"context"
	"fmt"
	"log"
	"sync"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	chatservice "github.com/zhouzirui/luma/backend/internal/service/chat"
)

// Config 控制情绪分析服务使用的规则配置。
type Config struct {
	DefaultProfile string
	Profiles       map[string]analysis.OverrideConfig
}

// Guidance 表示情绪分析的结果以及对回复语气的建议。
type Guidance struct {
	analysis.Result
	Style string `json:"style,omitempty"`
}

// Service runs the emotion pipeline for chat sessions and keeps the
// per-session context slot up to date.
type Service struct {
	degraded       bool
	detectors      map[string]*analysis.Detector
	defaultProfile string
	store          chatservice.Store

	locks sessionLocks
}

// sessionLocks hands out one mutex per session id. Entries are dropped once
// no caller holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func (l *sessionLocks) lock(sessionID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	sl, ok := l.locks[sessionID]
	if !ok {
		sl = &sessionLock{}
		l.locks[sessionID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// NewService 创建情绪分析服务。classifier 为 nil 时进入降级模式，所有消息标记为 Unknown。
func NewService(classifier *analysis.Classifier, cfg Config, store chatservice.Store) *Service {
	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles = analysis.Profiles()
	}

	detectors := make(map[string]*analysis.Detector, len(profiles))
	for name, profile := range profiles {
		detectors[name] = analysis.NewDetector(classifier, profile)
	}

	defaultProfile := cfg.DefaultProfile
	if _, ok := detectors[defaultProfile]; !ok {
		defaultProfile = analysis.ProfileLuma
		if _, ok := detectors[defaultProfile]; !ok {
			detectors[defaultProfile] = analysis.NewDetector(classifier, analysis.LumaProfile())
		}
	}

	return &Service{
		degraded:       detectors[defaultProfile].Degraded(),
		detectors:      detectors,
		defaultProfile: defaultProfile,
		store:          store,
	}
}

// Enabled 返回情绪模型是否已加载。
func (s *Service) Enabled() bool {
	return s != nil && !s.degraded
}

// Detect runs the pipeline without touching any session state.
func (s *Service) Detect(profile, text string, last analysis.Label) Guidance {
	result := s.detector(profile).Detect(text, last)
	return Guidance{Result: result, Style: StyleFor(result.Emotion)}
}

// Analyze 读取会话上一轮情绪，执行识别，并在需要时写回新的上下文。
func (s *Service) Analyze(ctx context.Context, sessionID, profile, text string) (Guidance, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	rawLast, err := s.store.LastEmotion(ctx, sessionID)
	if err != nil {
		return Guidance{}, fmt.Errorf("load last emotion: %w", err)
	}

	last, ok := analysis.ParseLabel(rawLast)
	if !ok {
		log.Printf("[emotion] ignoring unrecognized context %q for session=%s", rawLast, sessionID)
		last = analysis.None
	}

	guidance := s.Detect(profile, text, last)
	if guidance.LastEmotion != last {
		if err := s.store.SetLastEmotion(ctx, sessionID, string(guidance.LastEmotion)); err != nil {
			return Guidance{}, fmt.Errorf("store last emotion: %w", err)
		}
	}

	log.Printf("[emotion] session=%s profile=%s candidate=%s resolved=%s last=%s",
		sessionID, profile, guidance.Candidate, guidance.Emotion, guidance.LastEmotion)
	return guidance, nil
}

func (s *Service) detector(profile string) *analysis.Detector {
	if d, ok := s.detectors[profile]; ok {
		return d
	}
	return s.detectors[s.defaultProfile]
}

// StyleFor 返回某个情绪对应的回复语气建议。
func StyleFor(label analysis.Label) string {
	if style, ok := defaultStyleByEmotion[label]; ok {
		return style
	}
	return defaultStyleByEmotion[analysis.Neutral]
}

var defaultStyleByEmotion = map[analysis.Label]string{
	analysis.Neutral:  "Keep a calm, patient and clear tone.",
	analysis.Unknown:  "Keep a calm, patient and clear tone.",
	analysis.Joy:      "Be light and encouraging, and invite the user to share more.",
	analysis.Love:     "Be warm and appreciative of what the user cares about.",
	analysis.Sadness:  "Be gentle and empathetic, and offer comfort without rushing.",
	analysis.Anger:    "Stay steady and non-judgmental, acknowledge the frustration first.",
	analysis.Fear:     "Be reassuring, emphasize safety and the present moment.",
	analysis.Surprise: "Be curious and engaged, and ask how the user feels about it.",
}
