package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectImageTokens(t *testing.T) {
	content := "第一段" + ParagraphSeparator + "第二段" + ParagraphSeparator + "第三段"

	got := InjectImageTokens(content, []int{1, 3}, 2)
	blocks := strings.Split(got, ParagraphSeparator)
	require.Equal(t, []string{"第一段", "<IMG_1>", "第二段", "第三段", "<IMG_2>"}, blocks)
}

func TestInjectImageTokensNoImages(t *testing.T) {
	content := "正文"
	require.Equal(t, content, InjectImageTokens(content, nil, 0))
}

func TestExtractImageTokens(t *testing.T) {
	require.Equal(t, []int{1, 2}, ExtractImageTokens("a <IMG_1> b\n<IMG_2>"))
	require.Nil(t, ExtractImageTokens("没有锚点"))
	require.Nil(t, ExtractImageTokens(""))
}

func TestValidTokenSequence(t *testing.T) {
	require.True(t, ValidTokenSequence([]int{1, 2, 3}, 3))
	require.False(t, ValidTokenSequence([]int{1, 3, 2}, 3)) // 乱序
	require.False(t, ValidTokenSequence([]int{1, 2}, 3))    // 丢失
	require.False(t, ValidTokenSequence([]int{1, 1, 2}, 3)) // 重复
	require.True(t, ValidTokenSequence(nil, 0))
}

func TestStripImageTokensRoundTrip(t *testing.T) {
	content := "开头" + ParagraphSeparator + "中间" + ParagraphSeparator + "结尾"
	slots := []int{1, 2}

	tokenized := InjectImageTokens(content, slots, 2)
	stripped, newSlots := StripImageTokens(tokenized, 2)

	require.Equal(t, content, stripped)
	require.Equal(t, slots, newSlots)
}

func TestStripImageTokensRoundTripStable(t *testing.T) {
	content := "开头" + ParagraphSeparator + "中间" + ParagraphSeparator + "结尾"
	slots := []int{1, 2}

	// 注入与剥离连续多轮，内容与槽位必须逐轮保持不变
	for round := 1; round <= 3; round++ {
		tokenized := InjectImageTokens(content, slots, 2)
		stripped, newSlots := StripImageTokens(tokenized, 2)
		require.Equal(t, content, stripped, "round %d", round)
		require.Equal(t, slots, newSlots, "round %d", round)
		content, slots = stripped, newSlots
	}
}

func TestStripImageTokensDropsSeparatorResidue(t *testing.T) {
	// 锚点两侧残留的盲文空格行是分隔符碎片，不算正文块
	content := "开头\n" + BrailleBlank + "\n" + BrailleBlank + "\n<IMG_1>\n" + BrailleBlank + "\n结尾"
	stripped, slots := StripImageTokens(content, 1)

	require.Equal(t, "开头"+ParagraphSeparator+"结尾", stripped)
	require.Equal(t, []int{1}, slots)
}

func TestStripImageTokensStandaloneLine(t *testing.T) {
	// 改写器把锚点放在普通换行上而不是块分隔符上
	content := "Intro line\n<IMG_1>\nBody line"
	stripped, slots := StripImageTokens(content, 1)

	require.Equal(t, "Intro line"+ParagraphSeparator+"Body line", stripped)
	require.Equal(t, []int{1}, slots)
}

func TestStripImageTokensMissingTokenFallsToEnd(t *testing.T) {
	content := "只有一段文本"
	stripped, slots := StripImageTokens(content, 2)

	require.Equal(t, "只有一段文本", stripped)
	require.Equal(t, []int{1, 1}, slots)
}

func TestStripImageTokensInlineToken(t *testing.T) {
	content := "前半句 <IMG_1> 后半句"
	stripped, slots := StripImageTokens(content, 1)

	require.Equal(t, "前半句"+ParagraphSeparator+"后半句", stripped)
	require.Equal(t, []int{1}, slots)
}

func TestStripImageTokensNoImages(t *testing.T) {
	stripped, slots := StripImageTokens("文本 <IMG_1>", 0)
	require.Nil(t, slots)
	require.NotEmpty(t, stripped)
}
