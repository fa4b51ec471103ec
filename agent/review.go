package agent

import (
	"context"
	"log"
	"strings"

	"rednote_card_maker/card"
	"rednote_card_maker/llm"
)

// ReviewSystemPrompt 卡片视觉审查提示词。
const ReviewSystemPrompt = `你是一个小红书视觉审查专家。审查这张卡片截图的排版质量。

从以下维度打分（1-10 的整体分）：
- 文字密度：是否过密或过疏，有没有被截断的内容
- 留白节奏：段落间距是否舒服
- 图文关系：配图位置是否自然，有没有占位框（灰色"图片加载失败"）
- 可读性：字号层级、标题是否清晰

返回JSON：
{
    "score": 7,
    "issues": ["问题1", "问题2"],
    "suggestions": ["建议1", "建议2"]
}

只返回JSON，不要其他内容。`

// VisualReview 单页视觉审查结果。
type VisualReview struct {
	PageNumber  int      `json:"page_number"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Pass 判断是否达到放行阈值。
func (r VisualReview) Pass(threshold int) bool {
	return r.Score >= threshold
}

// Feedback 把审查结果拼成改写反馈文本。
func (r VisualReview) Feedback() string {
	var parts []string
	for _, issue := range r.Issues {
		parts = append(parts, "问题: "+issue)
	}
	for _, s := range r.Suggestions {
		parts = append(parts, "建议: "+s)
	}
	return strings.Join(parts, "\n")
}

// visualReview 用视觉模型审查渲染好的 PNG。
// 审查本身失败时给出放行分数：反馈循环是增强手段，不能因为
// 审查挂了就卡住整条流水线。
func (a *Agent) visualReview(ctx context.Context, pngBytes []byte, page card.FormattedPage) VisualReview {
	review := VisualReview{PageNumber: page.PageNumber, Score: a.cfg.PassThreshold}

	result, err := a.llm.ChatWithImage(ctx, llm.ImageRequest{
		SystemPrompt: ReviewSystemPrompt,
		UserPrompt:   "请审查这张小红书卡片的视觉排版质量，返回 JSON。",
		ImageBytes:   pngBytes,
		ImageMIME:    "image/png",
		Temperature:  0.2,
		MaxTokens:    800,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("[review] page %d visual review failed: %v", page.PageNumber, err)
		review.Issues = append(review.Issues, "视觉审查调用失败，按放行处理")
		return review
	}

	parsed, err := llm.ParseJSON(result.Content)
	if err != nil || !parsed.IsObject() {
		log.Printf("[review] page %d review response not parseable", page.PageNumber)
		review.Issues = append(review.Issues, "审查结果不可解析，按放行处理")
		return review
	}

	// 缺 score 字段按中性 5 分处理；显式给出的分数收敛到 1-10
	rawScore := parsed.Get("score")
	score := 5
	if rawScore.Exists() {
		score = int(rawScore.Int())
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}
	}
	review.Score = score
	review.Issues = nil

	for _, issue := range parsed.Get("issues").Array() {
		if s := strings.TrimSpace(issue.String()); s != "" {
			review.Issues = append(review.Issues, s)
		}
	}
	for _, sug := range parsed.Get("suggestions").Array() {
		if s := strings.TrimSpace(sug.String()); s != "" {
			review.Suggestions = append(review.Suggestions, s)
		}
	}

	return review
}
