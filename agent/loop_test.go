package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rednote_card_maker/card"
	"rednote_card_maker/llm"
)

func testPages() []card.FormattedPage {
	return []card.FormattedPage{{
		PageNumber: 1,
		Content:    "测试页面内容",
		CharCount:  6,
	}}
}

func TestFeedbackLoopDisabled(t *testing.T) {
	a := New(Config{OutputDir: t.TempDir()}, nil)

	pages, previews, reviews, iterations, err := a.runRenderFeedbackLoop(context.Background(), testPages(), false)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Len(t, previews, 1)
	require.NotEmpty(t, previews[0].ImageBytes)
	require.Empty(t, reviews)
	require.Equal(t, []int{1}, iterations)
}

func TestFeedbackLoopPassesFirstIteration(t *testing.T) {
	mock := &llm.Mock{Responses: []string{
		`{"score": 9, "issues": [], "suggestions": []}`,
	}}
	a := New(Config{OutputDir: t.TempDir()}, mock)

	pages, _, reviews, iterations, err := a.runRenderFeedbackLoop(context.Background(), testPages(), true)
	require.NoError(t, err)
	require.Equal(t, "测试页面内容", pages[0].Content)
	require.Equal(t, []int{1}, iterations)
	require.Len(t, reviews, 1)
	require.Equal(t, 9, reviews[0].Score)
	require.Equal(t, 1, mock.ImageCalls)
}

func TestFeedbackLoopExhaustsIterations(t *testing.T) {
	// 三轮审查都不达标：迭代耗尽后保留最后一版内容
	mock := &llm.Mock{Responses: []string{
		`{"score": 3, "issues": ["太密"]}`, // 审查 1
		"第一次改写",                           // 改写 1
		`{"score": 4, "issues": ["还是密"]}`, // 审查 2
		"第二次改写",                           // 改写 2
		`{"score": 5, "issues": ["略密"]}`,  // 审查 3（耗尽）
	}}
	a := New(Config{OutputDir: t.TempDir()}, mock)

	pages, previews, reviews, iterations, err := a.runRenderFeedbackLoop(context.Background(), testPages(), true)
	require.NoError(t, err)
	require.Equal(t, []int{3}, iterations)
	require.Equal(t, "第二次改写", pages[0].Content)
	require.NotEmpty(t, previews[0].ImageBytes)
	require.Equal(t, 5, reviews[0].Score)
	require.Equal(t, 3, mock.ImageCalls)
	require.Equal(t, 2, mock.TextCalls)
}

func TestFeedbackLoopCritiqueFailureSyntheticPass(t *testing.T) {
	// 审查调用失败：给放行分数继续流水线，不卡死
	mock := &llm.Mock{Err: context.DeadlineExceeded}
	a := New(Config{OutputDir: t.TempDir()}, mock)

	pages, _, reviews, iterations, err := a.runRenderFeedbackLoop(context.Background(), testPages(), true)
	require.NoError(t, err)
	require.Equal(t, []int{1}, iterations)
	require.Equal(t, "测试页面内容", pages[0].Content)
	require.Len(t, reviews, 1)
	require.GreaterOrEqual(t, reviews[0].Score, a.cfg.PassThreshold)
	require.NotEmpty(t, reviews[0].Issues)
}

func TestVisualReviewScoreClamp(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     int
	}{
		{"too high", `{"score": 42}`, 10},
		{"negative", `{"score": -3}`, 1},
		{"zero", `{"score": 0}`, 1},
		{"missing defaults to neutral", `{"issues": ["字太密"]}`, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &llm.Mock{Responses: []string{tc.response}}
			a := New(Config{OutputDir: t.TempDir()}, mock)

			review := a.visualReview(context.Background(), []byte("png"), card.FormattedPage{PageNumber: 1})
			require.Equal(t, tc.want, review.Score)
		})
	}
}

func TestVisualReviewStringifiesLists(t *testing.T) {
	mock := &llm.Mock{Responses: []string{
		`{"score": 6, "issues": ["间距不均", ""], "suggestions": ["增加空行"]}`,
	}}
	a := New(Config{OutputDir: t.TempDir()}, mock)

	review := a.visualReview(context.Background(), nil, card.FormattedPage{PageNumber: 2})
	require.Equal(t, 6, review.Score)
	require.Equal(t, []string{"间距不均"}, review.Issues)
	require.Equal(t, []string{"增加空行"}, review.Suggestions)
	require.Contains(t, review.Feedback(), "问题: 间距不均")
	require.Contains(t, review.Feedback(), "建议: 增加空行")
}
