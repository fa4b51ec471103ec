package card

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rednote_card_maker/llm"
	"rednote_card_maker/markdown"
)

func paragraphBlock(chars int) markdown.ContentBlock {
	return markdown.ContentBlock{
		Type:    markdown.BlockParagraph,
		Content: strings.Repeat("字", chars),
	}
}

func TestSplitShortDocSinglePage(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{paragraphBlock(200)}}

	s := NewSplitter(nil)
	pages := s.Split(context.Background(), doc, nil, false)

	require.Len(t, pages, 1)
	require.True(t, pages[0].IsCover)
	require.Equal(t, 1, pages[0].PageNumber)
	require.Equal(t, 200, pages[0].CharCount)
}

func TestSimpleSplitBudget(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{
		paragraphBlock(300),
		paragraphBlock(300),
		paragraphBlock(300),
	}}

	s := NewSplitter(nil)
	pages := s.Split(context.Background(), doc, nil, false)

	require.Len(t, pages, 3)
	for i, page := range pages {
		require.Equal(t, i+1, page.PageNumber)
		require.Equal(t, i == 0, page.IsCover)
		require.LessOrEqual(t, page.CharCount, MaxPageChars)
	}
}

func TestSimpleSplitOversizeBlockGetsOwnPage(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{
		paragraphBlock(100),
		paragraphBlock(600), // 单块超预算也必须落在某一页
		paragraphBlock(100),
	}}

	s := NewSplitter(nil)
	pages := s.Split(context.Background(), doc, nil, false)

	require.Len(t, pages, 3)
	require.Equal(t, 600, pages[1].CharCount)
}

func TestLLMSplitSanitizesIndices(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{
		paragraphBlock(250),
		paragraphBlock(250),
		paragraphBlock(250),
	}}

	// 方案含越界索引(9)、重复索引(0)、字符串索引("1")；块 2 漏掉了
	mock := &llm.Mock{Responses: []string{
		`{"pages": [{"block_indices": [0, 9]}, {"block_indices": ["1", 0]}], "reasoning": "test"}`,
	}}

	s := NewSplitter(mock)
	pages := s.Split(context.Background(), doc, nil, true)

	require.Len(t, pages, 2)
	require.Len(t, pages[0].Blocks, 1)
	// 漏掉的块补到最后一页
	require.Len(t, pages[1].Blocks, 2)
	require.Equal(t, 1, mock.TextCalls)
}

func TestLLMSplitRejectsSinglePagePlan(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{
		paragraphBlock(300),
		paragraphBlock(300),
	}}

	// 长文塌缩成单页的方案要被质量闸门拒掉，回退规则分割
	mock := &llm.Mock{Responses: []string{
		`{"pages": [{"block_indices": [0, 1]}], "reasoning": "one page"}`,
	}}

	s := NewSplitter(mock)
	pages := s.Split(context.Background(), doc, nil, true)

	require.Len(t, pages, 2)
}

func TestLLMSplitFailureFallsBack(t *testing.T) {
	doc := markdown.Document{Blocks: []markdown.ContentBlock{
		paragraphBlock(300),
		paragraphBlock(300),
	}}

	mock := &llm.Mock{Responses: []string{"这不是 JSON"}}

	s := NewSplitter(mock)
	pages := s.Split(context.Background(), doc, nil, true)

	require.Len(t, pages, 2)
}

func TestCollectImagesForBlocks(t *testing.T) {
	img := markdown.ImageRef{Alt: "图", Path: "a.png"}
	blocks := []markdown.ContentBlock{
		{Type: markdown.BlockImage, Image: &img},
		paragraphBlock(10),
		{Type: markdown.BlockImage, Image: &img}, // 重复引用只收集一次
	}
	analyses := []ImageAnalysis{{Path: "a.png", Description: "示例"}}

	images := collectImagesForBlocks(blocks, analyses)
	require.Len(t, images, 1)
	require.Equal(t, "示例", images[0].Description)
}
