package markdown

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Parser 基于 goldmark AST 的结构化解析器。
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{md: goldmark.New()}
}

// Parse 解析 Markdown 文本为有序内容块与图片引用列表。
func (p *Parser) Parse(content string) Document {
	source := []byte(content)
	root := p.md.Parser().Parse(gmtext.NewReader(source))

	doc := Document{Raw: content}
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		p.appendBlock(&doc, node, source)
	}
	return doc
}

// ParseFile 解析 Markdown 文件。
func (p *Parser) ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return p.Parse(string(data)), nil
}

func (p *Parser) appendBlock(doc *Document, node ast.Node, source []byte) {
	switch n := node.(type) {
	case *ast.Heading:
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:    BlockHeading,
			Content: linesText(n, source),
			Level:   n.Level,
		})

	case *ast.FencedCodeBlock:
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:     BlockCode,
			Content:  linesText(n, source),
			Language: string(n.Language(source)),
		})

	case *ast.CodeBlock:
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:    BlockCode,
			Content: linesText(n, source),
		})

	case *ast.List:
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:  BlockList,
			Items: listItems(n, source),
		})

	case *ast.Blockquote:
		var parts []string
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			if text := linesText(child, source); text != "" {
				parts = append(parts, text)
			}
		}
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:    BlockQuote,
			Content: strings.Join(parts, "\n"),
		})

	case *ast.ThematicBreak:
		doc.Blocks = append(doc.Blocks, ContentBlock{Type: BlockRule})

	case *ast.Paragraph:
		if img := soleImage(n, source); img != nil {
			ref := ImageRef{
				Alt:  inlineText(img, source),
				Path: string(img.Destination),
			}
			doc.Blocks = append(doc.Blocks, ContentBlock{Type: BlockImage, Image: &ref})
			doc.Images = append(doc.Images, ref)
			return
		}
		doc.Blocks = append(doc.Blocks, ContentBlock{
			Type:    BlockParagraph,
			Content: linesText(n, source),
		})

	default:
		if text := linesText(node, source); text != "" {
			doc.Blocks = append(doc.Blocks, ContentBlock{Type: BlockParagraph, Content: text})
		}
	}
}

// soleImage 判断段落是否只含一张图片（独立成行的 ![...](...)）。
func soleImage(paragraph *ast.Paragraph, source []byte) *ast.Image {
	var img *ast.Image
	for child := paragraph.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Image:
			if img != nil {
				return nil
			}
			img = n
		case *ast.Text:
			// 允许图片前后的空白文本片段
			if strings.TrimSpace(string(n.Segment.Value(source))) != "" {
				return nil
			}
		default:
			return nil
		}
	}
	return img
}

func linesText(node ast.Node, source []byte) string {
	lines := node.Lines()
	if lines == nil || lines.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func listItems(list *ast.List, source []byte) []string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		flush := func() {
			if len(parts) > 0 {
				items = append(items, strings.Join(parts, "\n"))
				parts = nil
			}
		}
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			// 嵌套列表排在父条目文本之后，先落盘已积累的文本
			if nested, ok := child.(*ast.List); ok {
				flush()
				items = append(items, listItems(nested, source)...)
				continue
			}
			if text := linesText(child, source); text != "" {
				parts = append(parts, text)
			}
		}
		flush()
	}
	return items
}

func inlineText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if text, ok := n.(*ast.Text); ok {
			sb.Write(text.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
