package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/viper"
)

// 支持的模型提供方。
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// ErrMissingAPIKey 表示所选提供方缺少密钥，属于启动期致命错误。
var ErrMissingAPIKey = errors.New("missing api key")

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Load 从环境变量（以及绑定到 viper 的命令行参数）加载配置。
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()

	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(v)
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig(v)
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Chat: chat, Log: loadLogConfig(v)}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr               string
	SessionIdleTimeout time.Duration
	SecureCookies      bool
}

// loadServerConfig 解析服务器监听地址与会话设置。
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	addr, err := parseAddr(getOrDefault(v, "ADDR", getOrDefault(v, "PORT", "8080")))
	if err != nil {
		return ServerConfig{}, err
	}

	idle, err := parseDuration(v, "SESSION_IDLE_TIMEOUT", 2*time.Hour)
	if err != nil {
		return ServerConfig{}, err
	}

	secure, err := parseBool(v, "SESSION_COOKIE_SECURE", false)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{Addr: addr, SessionIdleTimeout: idle, SecureCookies: secure}, nil
}

func parseAddr(port string) (string, error) {
	if strings.Contains(port, ":") {
		// 允许直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider        string
	APIKey          string
	AccessKey       string
	SecretKey       string
	Model           string
	BaseURL         string
	Region          string
	Temperature     *float32
	MaxOutputTokens *int32
}

// Validate 检查所选提供方需要的凭证是否齐全。
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: Google API key not found. Please set the GOOGLE_API_KEY environment variable", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: OpenAI API key not found. Please set the OPENAI_API_KEY environment variable", ErrMissingAPIKey)
		}
	case ProviderArk:
		if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
			return fmt.Errorf("%w: Ark credentials not found. Please set ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("unknown ASSISTANT_PROVIDER %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("ASSISTANT_MODEL is required for provider %s", c.Provider)
	}
	return nil
}

// NewChatModel 使用配置创建一个 Ark 模型实例。生成参数在每次调用时传入。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, fmt.Errorf("provider %s is not ark", c.Provider)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	}

	return ark.NewChatModel(ctx, cfg)
}

var defaultModels = map[string]string{
	ProviderGemini: "gemini-1.5-flash",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderMock:   "mock-model",
}

func loadAIConfig(v *viper.Viper) (AIConfig, error) {
	provider := strings.ToLower(getOrDefault(v, "ASSISTANT_PROVIDER", ProviderGemini))

	temperature, err := parseOptionalFloat32(v, "ASSISTANT_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalInt32(v, "ASSISTANT_MAX_OUTPUT_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens != nil && *maxTokens < 1 {
		return AIConfig{}, fmt.Errorf("invalid ASSISTANT_MAX_OUTPUT_TOKENS value %d: must be positive", *maxTokens)
	}

	cfg := AIConfig{
		Provider:        provider,
		Model:           getOrDefault(v, "ASSISTANT_MODEL", defaultModels[provider]),
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
	}

	switch provider {
	case ProviderGemini:
		cfg.APIKey = getString(v, "GOOGLE_API_KEY")
	case ProviderOpenAI:
		cfg.APIKey = getString(v, "OPENAI_API_KEY")
		cfg.BaseURL = getString(v, "OPENAI_BASE_URL")
	case ProviderArk:
		cfg.APIKey = getString(v, "ARK_API_KEY")
		cfg.AccessKey = getString(v, "ARK_ACCESS_KEY")
		cfg.SecretKey = getString(v, "ARK_SECRET_KEY")
		cfg.BaseURL = getOrDefault(v, "ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getOrDefault(v, "ARK_REGION", "cn-beijing")
	}

	if err := cfg.Validate(); err != nil {
		return AIConfig{}, err
	}
	return cfg, nil
}

// ChatConfig 描述会话与页面相关配置。
type ChatConfig struct {
	DefaultPersona     string
	LogoPath           string
	ExcludeFailedTurns bool
}

func loadChatConfig(v *viper.Viper) (ChatConfig, error) {
	exclude, err := parseBool(v, "CHAT_EXCLUDE_FAILED_TURNS", false)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		DefaultPersona:     getOrDefault(v, "ASSISTANT_DEFAULT_PERSONA", "qa"),
		LogoPath:           getString(v, "ASSISTANT_LOGO_PATH"),
		ExcludeFailedTurns: exclude,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getOrDefault(v, "LOG_LEVEL", "info")),
		Format: strings.ToLower(getOrDefault(v, "LOG_FORMAT", "console")),
	}
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func getOrDefault(v *viper.Viper, key, defaultValue string) string {
	if value := getString(v, key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(v *viper.Viper, key string, defaultValue bool) (bool, error) {
	raw := getString(v, key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDuration(v *viper.Viper, key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getString(v, key)
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloat32(v *viper.Viper, key string) (*float32, error) {
	value := getString(v, key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}

func parseOptionalInt32(v *viper.Viper, key string) (*int32, error) {
	value := getString(v, key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := int32(val)
	return &result, nil
}
