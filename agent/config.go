// Package agent 串起整条转换流水线：解析、图片分析、分页、排版、
// 渲染反馈循环与落盘输出。
package agent

import (
	"encoding/json"
	"fmt"
	"os"

	"rednote_card_maker/render"
)

// LLMConfig 大模型接入配置。
type LLMConfig struct {
	Provider string `json:"provider,omitempty"` // openai | deepseek | mock
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Config 应用配置（JSON 文件 + 默认值）。
type Config struct {
	LLM        *LLMConfig `json:"llm,omitempty"`
	ServerAddr string     `json:"server_addr,omitempty"`

	OutputDir     string `json:"output_dir,omitempty"`
	FontPath      string `json:"font_path,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	PassThreshold int    `json:"pass_threshold,omitempty"`
	TonePrompt    string `json:"tone_prompt,omitempty"`

	Style *render.VisualStyle `json:"style,omitempty"`
}

// LoadConfig 从磁盘读取 JSON 配置。
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults 填充缺省项后返回副本。
func (c Config) WithDefaults() Config {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 3
	}
	if c.PassThreshold <= 0 {
		c.PassThreshold = 7
	}
	return c
}

func (c Config) visualStyle() render.VisualStyle {
	if c.Style != nil {
		return *c.Style
	}
	return render.DefaultVisualStyle()
}
