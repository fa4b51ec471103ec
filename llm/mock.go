package llm

import (
	"context"
	"sync"
)

// Mock 按脚本回放响应的占位实现，便于本地调试与测试，不调用外部模型。
type Mock struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	TextCalls  int
	ImageCalls int
}

func (m *Mock) next() string {
	if len(m.Responses) == 0 {
		return ""
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp
}

func (m *Mock) ChatText(_ context.Context, _ TextRequest) (ChatResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextCalls++
	if m.Err != nil {
		return ChatResult{}, m.Err
	}
	return ChatResult{Content: m.next()}, nil
}

func (m *Mock) ChatWithImage(_ context.Context, _ ImageRequest) (ChatResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImageCalls++
	if m.Err != nil {
		return ChatResult{}, m.Err
	}
	return ChatResult{Content: m.next()}, nil
}
