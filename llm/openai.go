package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client using the official openai-go SDK (chat completions).
type OpenAIClient struct {
	cfg    Config
	client openai.Client
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	if cfg.Backoff.MaxRetries < 1 {
		cfg.Backoff = DefaultBackoff()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	log.Printf("[llm] client ready: model=%s base_url=%s api_key=%s",
		cfg.Model, cfg.BaseURL, MaskSecret(cfg.APIKey))

	return &OpenAIClient{cfg: cfg, client: openai.NewClient(opts...)}, nil
}

func (c *OpenAIClient) ChatText(ctx context.Context, req TextRequest) (ChatResult, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		openai.UserMessage(req.UserPrompt),
	}
	return c.callWithRetry(ctx, msgs, req.Temperature, req.MaxTokens, req.JSONMode)
}

func (c *OpenAIClient) ChatWithImage(ctx context.Context, req ImageRequest) (ChatResult, error) {
	mime := req.ImageMIME
	if mime == "" {
		mime = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.ImageBytes))

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.UserPrompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}),
	}
	return c.callWithRetry(ctx, msgs, req.Temperature, req.MaxTokens, req.JSONMode)
}

func (c *OpenAIClient) call(
	ctx context.Context,
	msgs []openai.ChatCompletionMessageParamUnion,
	temperature float64,
	maxTokens int64,
	jsonMode bool,
) (ChatResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(maxTokens)
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResult{}, err
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, &TransientError{msg: "openai: empty choices"}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return ChatResult{}, &TransientError{msg: "openai: empty response content"}
	}
	return ChatResult{Content: content}, nil
}

func (c *OpenAIClient) callWithRetry(
	ctx context.Context,
	msgs []openai.ChatCompletionMessageParamUnion,
	temperature float64,
	maxTokens int64,
	jsonMode bool,
) (ChatResult, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.Backoff.MaxRetries; attempt++ {
		result, err := c.call(ctx, msgs, temperature, maxTokens, jsonMode)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// 鉴权失败是唯一绝对不重试的类别。
		if isAuthError(err) {
			return ChatResult{}, &PermanentError{msg: err.Error()}
		}

		// 服务端不支持 JSON 模式：去掉 response_format 再试一次。
		if jsonMode && isJSONModeRejection(err) {
			log.Printf("[llm] provider rejected JSON mode; retrying once without json_mode")
			return c.call(ctx, msgs, temperature, maxTokens, false)
		}

		if attempt >= c.cfg.Backoff.MaxRetries {
			break
		}

		if isTransientError(err) {
			log.Printf("[llm] transient error (%v); retry %d/%d", err, attempt, c.cfg.Backoff.MaxRetries)
			if sleepErr := c.cfg.Backoff.Sleep(ctx, attempt); sleepErr != nil {
				return ChatResult{}, sleepErr
			}
			continue
		}

		return ChatResult{}, &PermanentError{msg: err.Error()}
	}

	return ChatResult{}, &TransientError{msg: lastErr.Error()}
}

func isAuthError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

func isTransientError(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 408 || apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return isTransientMessage(err.Error())
}

func isJSONModeRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"response_format", "unknown parameter", "unrecognized", "invalid request"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
