package agent

import "log"

// ProgressEvent 流水线进度事件，progress 取值 [0,1]。
type ProgressEvent struct {
	Stage    string  `json:"stage"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	Page     int     `json:"page,omitempty"`
}

// ProgressFunc 进度回调。回调内 panic 不会中断流水线。
type ProgressFunc func(ProgressEvent)

func (a *Agent) emit(stage, message string, progress float64, page int) {
	log.Printf("[agent] %s: %s (%.0f%%)", stage, message, progress*100)
	if a.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[agent] progress callback panic: %v", r)
		}
	}()
	a.progress(ProgressEvent{Stage: stage, Message: message, Progress: progress, Page: page})
}
