package card

import "strings"

// FlowItemKind 渲染流单元类型。
type FlowItemKind int

const (
	FlowText FlowItemKind = iota
	FlowImage
)

// FlowItem 最终渲染序列中的一个有序单元（文本块或图片）。
// 每次渲染即时重算，从不持久化。
type FlowItem struct {
	Kind  FlowItemKind
	Value string // 文本内容或图片 URL
}

// SplitContentBlocks 把页面文本切成（标题, 正文块列表）。
// useTitle=false 时不抽取标题，整段都算正文。
func SplitContentBlocks(content string, useTitle bool) (string, []string) {
	normalized := normalizer.NormalizeRichText(content, ParagraphSeparator)
	raw := strings.TrimSpace(normalized)
	if raw == "" {
		return "", nil
	}

	blocks := splitBlocks(raw)
	if len(blocks) == 0 {
		return "", nil
	}

	if !useTitle {
		return "", blocks
	}

	if len(blocks) == 1 {
		first, remain, found := strings.Cut(blocks[0], "\n")
		title := strings.TrimSpace(first)
		if found && strings.TrimSpace(remain) != "" {
			return title, []string{strings.TrimSpace(remain)}
		}
		return title, nil
	}

	return blocks[0], blocks[1:]
}

// BuildFlowItems 把标题、正文块与图片槽位合成单趟渲染流。
// 两个渲染后端共用同一份流，这是栅格与标记输出保持视觉一致的机制。
//
// formatter 记录的 image_slots 是"全文块坐标"（含标题块），渲染流里图片
// 插入锚点使用"正文块坐标"，这里做一次坐标系转换。
func BuildFlowItems(content string, imageURLs []string, imageSlots []int, useTitle bool) (string, []FlowItem) {
	title, bodyBlocks := SplitContentBlocks(content, useTitle)

	hasTitle := title != ""
	totalBlockCount := len(bodyBlocks)
	if hasTitle {
		totalBlockCount++
	}
	slots := NormalizeSlots(len(imageURLs), imageSlots, totalBlockCount)

	if hasTitle {
		for i, slot := range slots {
			mapped := slot - 1
			if mapped < 0 {
				mapped = 0
			}
			if mapped > len(bodyBlocks) {
				mapped = len(bodyBlocks)
			}
			slots[i] = mapped
		}
	}

	items := make([]FlowItem, 0, len(bodyBlocks)+len(imageURLs))
	imgIdx := 0

	for blockIdx := 0; blockIdx <= len(bodyBlocks); blockIdx++ {
		for imgIdx < len(imageURLs) && slots[imgIdx] == blockIdx {
			items = append(items, FlowItem{Kind: FlowImage, Value: imageURLs[imgIdx]})
			imgIdx++
		}
		if blockIdx < len(bodyBlocks) {
			items = append(items, FlowItem{Kind: FlowText, Value: bodyBlocks[blockIdx]})
		}
	}
	for imgIdx < len(imageURLs) {
		items = append(items, FlowItem{Kind: FlowImage, Value: imageURLs[imgIdx]})
		imgIdx++
	}

	return title, items
}
