package emotion

import (
	"fmt"
	"sort"
	"strings"
)

// OverrideConfig 描述规则层的阈值与关键词集合。
type OverrideConfig struct {
	// NegativeKeywords force Anger when a positive candidate contains one.
	NegativeKeywords []string `yaml:"negative_keywords" json:"negativeKeywords"`
	// QuestionKeywords mark the message as a question.
	QuestionKeywords []string `yaml:"question_keywords" json:"questionKeywords"`
	// PositiveKeywords keep short messages from being neutralized. Empty
	// disables the guard.
	PositiveKeywords []string `yaml:"positive_keywords" json:"positiveKeywords"`
	// ShortThreshold is the whitespace token count below which a message is
	// considered short.
	ShortThreshold int `yaml:"short_threshold" json:"shortThreshold"`
}

// 内置规则配置名称。
const (
	ProfileListener = "listener"
	ProfileLuma     = "luma"
)

var defaultNegativeKeywords = []string{
	"demote", "fire", "hate", "stupid", "idiot", "kill", "die", "angry", "furious", "mad",
	"boss", "bad", "terrible", "hit", "punch", "hurt", "hell", "damn", "wtf",
}

var defaultQuestionKeywords = []string{"what", "how", "why", "when", "where", "who", "?"}

var defaultPositiveKeywords = []string{
	"happy", "good", "great", "love", "excellent", "amazing", "wonderful", "joy", "excited",
	"better", "fine", "ok", "okay",
}

// ListenerProfile treats anything under 8 words as short and has no
// positive guard.
func ListenerProfile() OverrideConfig {
	return OverrideConfig{
		NegativeKeywords: append([]string(nil), defaultNegativeKeywords...),
		QuestionKeywords: append([]string(nil), defaultQuestionKeywords...),
		ShortThreshold:   8,
	}
}

// LumaProfile only neutralizes one- and two-word replies and lets explicit
// positive words through.
func LumaProfile() OverrideConfig {
	return OverrideConfig{
		NegativeKeywords: append([]string(nil), defaultNegativeKeywords...),
		QuestionKeywords: append([]string(nil), defaultQuestionKeywords...),
		PositiveKeywords: append([]string(nil), defaultPositiveKeywords...),
		ShortThreshold:   3,
	}
}

// Profiles 返回内置规则配置。
func Profiles() map[string]OverrideConfig {
	return map[string]OverrideConfig{
		ProfileListener: ListenerProfile(),
		ProfileLuma:     LumaProfile(),
	}
}

// ProfileNames returns the sorted profile names in profiles.
func ProfileNames(profiles map[string]OverrideConfig) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 检查配置是否可用。
func (c OverrideConfig) Validate() error {
	if c.ShortThreshold < 0 {
		return fmt.Errorf("short_threshold must be >= 0, got %d", c.ShortThreshold)
	}
	for _, set := range [][]string{c.NegativeKeywords, c.QuestionKeywords, c.PositiveKeywords} {
		for _, kw := range set {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("keyword lists must not contain blank entries")
			}
		}
	}
	return nil
}

// Overrider applies the contextual correction rules to classifier output.
type Overrider struct {
	negative []string
	question []string
	positive []string
	short    int
}

// NewOverrider 创建规则层，关键词统一转为小写。
func NewOverrider(cfg OverrideConfig) *Overrider {
	return &Overrider{
		negative: lowerAll(cfg.NegativeKeywords),
		question: lowerAll(cfg.QuestionKeywords),
		positive: lowerAll(cfg.PositiveKeywords),
		short:    cfg.ShortThreshold,
	}
}

// Resolve corrects candidate using lexical cues in text and the previously
// resolved emotion. It returns the resolved label and the context value the
// caller should store for the next turn. Neutral never replaces last.
func (o *Overrider) Resolve(text string, candidate, last Label) (Label, Label) {
	label := candidate
	if !label.Known() {
		label = Unknown
	}

	normalized := strings.ToLower(text)

	if containsAny(normalized, o.negative) {
		switch label {
		case Joy, Love, Surprise:
			label = Anger
		}
	}

	if label == Joy || label == Surprise {
		isQuestion := containsAny(normalized, o.question)
		isShort := len(strings.Fields(text)) < o.short
		hasPositive := containsAny(normalized, o.positive)

		if isQuestion || (isShort && !hasPositive) {
			if last.Negative() {
				label = last
			} else {
				label = Neutral
			}
		}
	}

	if label == Neutral {
		return label, last
	}
	return label, label
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
