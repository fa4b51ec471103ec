package llm

import (
	"context"
	"math/rand"
	"time"
)

// Backoff 显式的有界重试策略：指数退避 + 最多 10% 抖动。
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   20 * time.Second,
	}
}

// Delay 第 attempt 次（1 起）失败后的等待时长。
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.MaxDelay {
			delay = b.MaxDelay
			break
		}
	}
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}

	jitterCap := delay / 10
	if jitterCap > time.Second {
		jitterCap = time.Second
	}
	if jitterCap > 0 {
		delay += time.Duration(rand.Int63n(int64(jitterCap)))
	}
	return delay
}

// Sleep 等待下一次重试，可被 ctx 取消。
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
