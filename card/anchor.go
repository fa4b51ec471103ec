package card

import "math"

// NormalizeSlots 把原始槽位收敛为合法序列：
// 长度对齐图片数（缺省补 blockCount）、裁剪进 [0, blockCount]、保持单调不减。
func NormalizeSlots(imageCount int, slots []int, blockCount int) []int {
	if imageCount <= 0 {
		return nil
	}

	raw := make([]int, 0, imageCount)
	raw = append(raw, slots...)
	for len(raw) < imageCount {
		raw = append(raw, blockCount)
	}
	raw = raw[:imageCount]

	normalized := make([]int, 0, imageCount)
	prev := 0
	for _, slot := range raw {
		if slot < 0 {
			slot = 0
		}
		if slot > blockCount {
			slot = blockCount
		}
		if slot < prev {
			slot = prev
		}
		normalized = append(normalized, slot)
		prev = slot
	}
	return normalized
}

// RemapSlotsProportional 文本块数量变化后按比例重算槽位。
// 只是统计近似：没有更强信号（token 回路）时的兜底，不保证精确位置。
func RemapSlotsProportional(slots []int, oldCount, newCount int) []int {
	if len(slots) == 0 {
		return nil
	}
	if oldCount < 1 {
		oldCount = 1
	}
	if newCount < 1 {
		newCount = 1
	}

	remapped := make([]int, 0, len(slots))
	for _, slot := range slots {
		mapped := int(math.Round(float64(slot) / float64(oldCount) * float64(newCount)))
		if mapped < 0 {
			mapped = 0
		}
		if mapped > newCount {
			mapped = newCount
		}
		remapped = append(remapped, mapped)
	}

	// 保持稳定的单调不减顺序
	for i := 1; i < len(remapped); i++ {
		if remapped[i] < remapped[i-1] {
			remapped[i] = remapped[i-1]
		}
	}
	return remapped
}
