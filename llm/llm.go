// Package llm 封装 OpenAI 兼容的大模型访问：文本、视觉、JSON 模式与重试。
package llm

import "context"

// Client 抽象大模型客户端，便于替换/Mock。
type Client interface {
	ChatText(ctx context.Context, req TextRequest) (ChatResult, error)
	ChatWithImage(ctx context.Context, req ImageRequest) (ChatResult, error)
}

// TextRequest 纯文本对话请求。
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int64
	JSONMode     bool
}

// ImageRequest 携带一张图片的视觉对话请求。
type ImageRequest struct {
	SystemPrompt string
	UserPrompt   string
	ImageBytes   []byte
	ImageMIME    string
	Temperature  float64
	MaxTokens    int64
	JSONMode     bool
}

// ChatResult 单次调用的产出。
type ChatResult struct {
	Content string
}
