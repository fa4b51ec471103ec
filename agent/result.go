package agent

import (
	"rednote_card_maker/card"
	"rednote_card_maker/render"
)

// ConversionResult 一次完整转换的产出。
type ConversionResult struct {
	Pages         []card.FormattedPage   `json:"pages"`
	Reviews       []VisualReview         `json:"reviews,omitempty"`
	Iterations    []int                  `json:"iterations,omitempty"` // 每页实际迭代次数
	ImageAnalyses []card.ImageAnalysis   `json:"image_analyses,omitempty"`
	OutputFiles   []string               `json:"output_files,omitempty"`
	Previews      []render.PreviewResult `json:"-"`
}
