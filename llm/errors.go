package llm

import "strings"

// TransientError 网络抖动、限流、5xx 等可重试错误。
type TransientError struct {
	msg string
}

func (e *TransientError) Error() string { return e.msg }

// PermanentError 鉴权失败等不可重试错误。
type PermanentError struct {
	msg string
}

func (e *PermanentError) Error() string { return e.msg }

var transientHints = []string{
	"rate limit",
	"timeout",
	"timed out",
	"temporarily",
	"overload",
	"502",
	"503",
	"500",
	"connection reset",
	"connection refused",
	"network",
}

func isTransientMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, hint := range transientHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
