package render

import (
	"bytes"
	"fmt"
	"log"

	"github.com/fogleman/gg"

	"rednote_card_maker/card"
)

// RenderToImage 把单页内容栅格化为 PNG 卡片。
// 渲染流（文本块与图片的交错顺序）与 HTML 输出共用同一份 BuildFlowItems
// 结果，保证两种输出的图文顺序一致。
func (r *Renderer) RenderToImage(content string, pageNumber int, imageURLs []string, imageSlots []int, totalPages int, useTitle bool) ([]byte, error) {
	dc := gg.NewContext(r.Width, r.Height)
	dc.SetHexColor(r.style.CardBG)
	dc.Clear()

	contentWidth := r.Width - 2*paddingX
	maxY := r.Height - paddingBottom - 44
	y := paddingTop

	title, items := card.BuildFlowItems(content, imageURLs, imageSlots, useTitle)

	if title != "" {
		measure := func(text string) float64 { return r.fonts.Measure(text, titleFontSize) }
		for _, line := range WrapText(title, float64(contentWidth), measure) {
			if y+int(titleFontSize*1.5) > maxY {
				break
			}
			r.drawLine(dc, line, paddingX, y, titleFontSize, r.style.TitleColor)
			y += int(titleFontSize * 1.5)
		}
		y += blockGap
	}

	measureBody := func(text string) float64 { return r.fonts.Measure(text, bodyFontSize) }

	for _, item := range items {
		if y > maxY {
			break
		}

		if item.Kind == card.FlowImage {
			available := maxY - y
			if available < imageMinHeight {
				break
			}
			height := estimateImageHeight(contentWidth, available)
			r.drawInlineImage(dc, item.Value, paddingX, y, contentWidth, height)
			y += height + blockGap
			continue
		}

		for _, line := range WrapText(item.Value, float64(contentWidth), measureBody) {
			if IsBlankLine(line) {
				y += lineHeight / 2
				continue
			}
			if y+lineHeight > maxY {
				y = maxY + 1
				break
			}
			r.drawLine(dc, line, paddingX, y, bodyFontSize, r.style.TextColor)
			y += lineHeight
		}
		y += blockGap
	}

	// 页码角标始终绘制，不受正文溢出影响
	pageText := fmt.Sprintf("%d/%d", pageNumber, totalPages)
	pageWidth := r.fonts.Measure(pageText, pageFontSize)
	r.drawLine(dc, pageText, int(float64(r.Width)-paddingX-pageWidth), r.Height-52, pageFontSize, r.style.AccentColor)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLine 逐字符绘制一行混排文本，emoji 码位切换到 emoji 字体。
// 传入的 y 是行顶，基线为 y+size。
func (r *Renderer) drawLine(dc *gg.Context, line string, x, y int, size float64, hexColor string) {
	dc.SetHexColor(hexColor)
	cursor := float64(x)
	baseline := float64(y) + size

	for _, ch := range line {
		if face := r.fonts.faceFor(ch, size); face != nil {
			dc.SetFontFace(face)
		}
		dc.DrawString(string(ch), cursor, baseline)
		cursor += r.fonts.advance(ch, size)
	}
}

// drawInlineImage 绘制圆角正文配图，加载失败退化为占位框。
func (r *Renderer) drawInlineImage(dc *gg.Context, imageURL string, x, y, width, height int) {
	img, err := r.loadImage(imageURL)
	if err != nil {
		log.Printf("[render] image load failed %s: %v", imageURL, err)
		r.drawImagePlaceholder(dc, x, y, width, height)
		return
	}

	fitted := fitCoverImage(img, width, height)

	dc.DrawRoundedRectangle(float64(x), float64(y), float64(width), float64(height), imageCorner)
	dc.Clip()
	dc.DrawImage(fitted, x, y)
	dc.ResetClip()
}

func (r *Renderer) drawImagePlaceholder(dc *gg.Context, x, y, width, height int) {
	dc.DrawRoundedRectangle(float64(x), float64(y), float64(width), float64(height), imageCorner)
	dc.SetRGB255(245, 242, 237)
	dc.Fill()

	dc.DrawRoundedRectangle(float64(x), float64(y), float64(width), float64(height), imageCorner)
	dc.SetRGB255(228, 224, 216)
	dc.SetLineWidth(2)
	dc.Stroke()

	caption := "图片加载失败"
	captionWidth := r.fonts.Measure(caption, pageFontSize)
	captionX := x + (width-int(captionWidth))/2
	captionY := y + height/2 - int(pageFontSize)/2
	r.drawLine(dc, caption, captionX, captionY, pageFontSize, r.style.AccentColor)
}
