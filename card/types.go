package card

import (
	"strings"

	"rednote_card_maker/markdown"
)

// ImageAnalysis 图片分析结果（视觉能力产出，字段已做默认值与枚举收敛）。
type ImageAnalysis struct {
	Path              string   `json:"path"`
	Description       string   `json:"description"`
	Mood              string   `json:"mood"` // warm | cool | vibrant | neutral
	Tags              []string `json:"tags"`
	SuggestedPosition string   `json:"suggested_position"` // cover | inline | ending
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	AspectRatio       float64  `json:"aspect_ratio"`
}

func (a ImageAnalysis) IsVertical() bool { return a.AspectRatio < 1.0 }

// PageContent 分页后的单页内容（尚未格式化）。
type PageContent struct {
	PageNumber int
	Blocks     []markdown.ContentBlock
	Images     []ImageAnalysis
	CharCount  int
	IsCover    bool
}

// TextContent 该页纯文本内容。
func (p PageContent) TextContent() string {
	var texts []string
	for _, block := range p.Blocks {
		if block.Type == markdown.BlockImage {
			continue
		}
		if block.Type == markdown.BlockList {
			texts = append(texts, block.Items...)
			continue
		}
		texts = append(texts, block.Content)
	}
	return strings.Join(texts, "\n")
}

// FormattedPage 格式化后的页面。每次改写都整体替换，不做原地局部修改。
type FormattedPage struct {
	PageNumber       int      `json:"page_number"`
	Content          string   `json:"content"`
	CharCount        int      `json:"char_count"`
	EmojiCount       int      `json:"emoji_count"`
	HasProperSpacing bool     `json:"has_proper_spacing"`
	ImageURLs        []string `json:"image_urls"`
	ImageSlots       []int    `json:"image_slots"`
}
