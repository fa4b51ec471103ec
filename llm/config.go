package llm

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Config 统一的 LLM 连接配置。
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	Timeout time.Duration
	Backoff Backoff
}

// ResolveConfig 合并显式参数与环境变量，优先级：参数 > SKILL_LLM_* > OPENAI_*。
func ResolveConfig(apiKey, baseURL, model string) (Config, error) {
	key := firstNonEmpty(apiKey, os.Getenv("SKILL_LLM_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	if key == "" {
		return Config{}, errors.New("missing API key; set SKILL_LLM_API_KEY or OPENAI_API_KEY")
	}

	return Config{
		APIKey:  key,
		BaseURL: firstNonEmpty(baseURL, os.Getenv("SKILL_LLM_BASE_URL"), os.Getenv("OPENAI_BASE_URL"), defaultBaseURL),
		Model:   firstNonEmpty(model, os.Getenv("SKILL_LLM_MODEL"), defaultModel),
		Timeout: 60 * time.Second,
		Backoff: DefaultBackoff(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// MaskSecret 打日志时隐藏密钥，仅保留末四位。
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	const showLast = 4
	if len(value) <= showLast {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-showLast) + value[len(value)-showLast:]
}
