package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/luma/backend/internal/analysis/emotion"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	Emotion    EmotionConfig
	Generation GenerationConfig
	Session    SessionConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	emotionCfg, err := loadEmotionConfig()
	if err != nil {
		return nil, err
	}

	generation, err := loadGenerationConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Emotion: emotionCfg, Generation: generation, Session: session}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// EmotionConfig 描述情绪识别模型与规则层配置。
type EmotionConfig struct {
	ModelPath string
	// DefaultProfile is used for personas whose profile is unknown.
	DefaultProfile string
	Profiles       map[string]emotion.OverrideConfig
}

func loadEmotionConfig() (EmotionConfig, error) {
	profiles := emotion.Profiles()

	if path := strings.TrimSpace(os.Getenv("OVERRIDE_PROFILE_FILE")); path != "" {
		extra, err := LoadOverrideProfiles(path)
		if err != nil {
			return EmotionConfig{}, err
		}
		for name, cfg := range extra {
			profiles[name] = cfg
		}
	}

	defaultProfile := getEnvOrDefault("OVERRIDE_PROFILE", emotion.ProfileLuma)
	if _, ok := profiles[defaultProfile]; !ok {
		return EmotionConfig{}, fmt.Errorf("invalid OVERRIDE_PROFILE value %q (available: %s)",
			defaultProfile, strings.Join(emotion.ProfileNames(profiles), ", "))
	}

	return EmotionConfig{
		ModelPath:      getEnvOrDefault("MODEL_PATH", "ml_model/model_params.json"),
		DefaultProfile: defaultProfile,
		Profiles:       profiles,
	}, nil
}

// LoadOverrideProfiles 读取 YAML 格式的规则配置文件，顶层键为配置名称。
func LoadOverrideProfiles(path string) (map[string]emotion.OverrideConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read override profiles: %w", err)
	}

	var profiles map[string]emotion.OverrideConfig
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("parse override profiles %s: %w", path, err)
	}
	for name, cfg := range profiles {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("override profile %q: %w", name, err)
		}
	}
	return profiles, nil
}

// 文本生成服务提供方。
const (
	ProviderNone   = "none"
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// GenerationConfig 描述外部文本生成服务配置。
type GenerationConfig struct {
	Provider     string
	Timeout      time.Duration
	HistoryLimit int
	Ark          AIConfig
	OpenAI       OpenAIConfig
	Gemini       GeminiConfig
}

// AIConfig 描述 Ark 大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// OpenAIConfig 描述 OpenAI Responses API 配置。
type OpenAIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int64
}

// GeminiConfig 描述 Google Gemini 配置。
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// Enabled 表示是否提供了 API Key 和模型。
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// Enabled 表示是否提供了 API Key 和模型。
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadGenerationConfig() (GenerationConfig, error) {
	arkCfg, err := loadArkConfig()
	if err != nil {
		return GenerationConfig{}, err
	}

	maxOutput, err := parseOptionalIntEnv("OPENAI_MAX_OUTPUT_TOKENS")
	if err != nil {
		return GenerationConfig{}, err
	}
	openaiMaxOutput := int64(300)
	if maxOutput != nil && *maxOutput > 0 {
		openaiMaxOutput = int64(*maxOutput)
	}

	timeout, err := parseDurationEnv("GENERATION_TIMEOUT", 20*time.Second)
	if err != nil {
		return GenerationConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("GENERATION_HISTORY_LIMIT"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil {
		historyLimit = *override
		if historyLimit < 0 {
			historyLimit = 0
		}
	}

	cfg := GenerationConfig{
		Timeout:      timeout,
		HistoryLimit: historyLimit,
		Ark:          arkCfg,
		OpenAI: OpenAIConfig{
			APIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:           getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:         strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			MaxOutputTokens: openaiMaxOutput,
		},
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("GENERATION_PROVIDER")))
	switch provider {
	case "":
		cfg.Provider = detectProvider(cfg)
	case ProviderNone, ProviderArk, ProviderOpenAI, ProviderGemini:
		cfg.Provider = provider
	default:
		return GenerationConfig{}, fmt.Errorf("invalid GENERATION_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// detectProvider 未显式指定时按凭证推断，优先 Gemini。
func detectProvider(cfg GenerationConfig) string {
	switch {
	case cfg.Gemini.Enabled():
		return ProviderGemini
	case cfg.OpenAI.Enabled():
		return ProviderOpenAI
	case cfg.Ark.Enabled():
		return ProviderArk
	default:
		return ProviderNone
	}
}

func loadArkConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

// 会话存储后端。
const (
	SessionStoreMemory = "memory"
	SessionStoreBolt   = "bolt"
)

// SessionConfig 描述会话存储配置。
type SessionConfig struct {
	Backend string
	DBPath  string
}

func loadSessionConfig() (SessionConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("SESSION_STORE", SessionStoreMemory))
	if backend != SessionStoreMemory && backend != SessionStoreBolt {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", backend)
	}

	return SessionConfig{
		Backend: backend,
		DBPath:  getEnvOrDefault("SESSION_DB_PATH", "data/sessions.bolt"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// 纯数字按秒处理。
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
