// Package markdown 把 Markdown 文档解析为结构化内容块，并做行内语法清洗。
package markdown

import (
	"strings"
	"unicode/utf8"
)

// BlockType 内容块类型。
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockList      BlockType = "list"
	BlockCode      BlockType = "code"
	BlockQuote     BlockType = "quote"
	BlockImage     BlockType = "image"
	BlockRule      BlockType = "hr"
)

// ImageRef 图片引用（本地路径或远程 URL）。
type ImageRef struct {
	Alt  string
	Path string
}

func (r ImageRef) IsURL() bool {
	return strings.HasPrefix(r.Path, "http://") || strings.HasPrefix(r.Path, "https://")
}

// ContentBlock 一个有序的结构化内容块。
type ContentBlock struct {
	Type     BlockType
	Content  string
	Level    int      // 标题级别
	Language string   // 代码块语言
	Items    []string // 列表项
	Image    *ImageRef
}

// Document 解析后的 Markdown 文档。
type Document struct {
	Blocks []ContentBlock
	Images []ImageRef
	Raw    string
}

// TextContent 纯文本内容（不含图片块）。
func (d Document) TextContent() string {
	var texts []string
	for _, block := range d.Blocks {
		if block.Type == BlockImage {
			continue
		}
		if block.Type == BlockList {
			texts = append(texts, block.Items...)
			continue
		}
		texts = append(texts, block.Content)
	}
	return strings.Join(texts, "\n")
}

func (d Document) CharCount() int {
	return utf8.RuneCountInString(d.TextContent())
}
