package agent

import (
	"context"
	"log"

	"rednote_card_maker/card"
	"rednote_card_maker/render"
)

// runRenderFeedbackLoop 对每页执行 渲染→审查→改写 循环，直到达标或
// 迭代耗尽。耗尽时保留最后一版内容与渲染结果，不回滚。
// 返回（最终页面、最终渲染、每页最后一次审查、每页迭代次数）。
func (a *Agent) runRenderFeedbackLoop(ctx context.Context, pages []card.FormattedPage, useFeedback bool) ([]card.FormattedPage, []render.PreviewResult, []VisualReview, []int, error) {
	finalPages := append([]card.FormattedPage(nil), pages...)
	previews := make([]render.PreviewResult, len(pages))
	reviews := make([]VisualReview, 0, len(pages))
	iterations := make([]int, len(pages))
	total := len(pages)

	for i := range finalPages {
		page := finalPages[i]
		useTitle := page.PageNumber == 1

		var preview render.PreviewResult
		var lastReview VisualReview
		var err error

		iters := 0
		for {
			iters++
			preview, err = a.renderer.Render(page.Content, page.PageNumber, page.ImageURLs, page.ImageSlots, total, useTitle)
			if err != nil {
				return nil, nil, nil, nil, err
			}

			if !useFeedback || a.llm == nil {
				break
			}

			lastReview = a.visualReview(ctx, preview.ImageBytes, page)
			log.Printf("[agent] page %d iteration %d: score=%d issues=%d",
				page.PageNumber, iters, lastReview.Score, len(lastReview.Issues))

			if lastReview.Pass(a.cfg.PassThreshold) || iters >= a.cfg.MaxIterations {
				break
			}

			page = a.formatter.RefinePage(ctx, page, lastReview.Feedback())
		}

		finalPages[i] = page
		previews[i] = preview
		iterations[i] = iters
		if useFeedback && a.llm != nil {
			reviews = append(reviews, lastReview)
		}

		a.emit("visual_feedback", "页面渲染完成", 0.6+0.3*float64(i+1)/float64(total), page.PageNumber)
	}

	return finalPages, previews, reviews, iterations, nil
}
