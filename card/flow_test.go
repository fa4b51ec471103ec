package card

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitContentBlocks(t *testing.T) {
	content := "标题行" + ParagraphSeparator + "正文一" + ParagraphSeparator + "正文二"

	title, body := SplitContentBlocks(content, true)
	require.Equal(t, "标题行", title)
	require.Equal(t, []string{"正文一", "正文二"}, body)

	title, body = SplitContentBlocks(content, false)
	require.Equal(t, "", title)
	require.Equal(t, []string{"标题行", "正文一", "正文二"}, body)
}

func TestSplitContentBlocksSingleBlock(t *testing.T) {
	// 单块页面：首行升格为标题
	title, body := SplitContentBlocks("第一行\n第二行\n第三行", true)
	require.Equal(t, "第一行", title)
	require.Equal(t, []string{"第二行\n第三行"}, body)

	title, body = SplitContentBlocks("只有一行", true)
	require.Equal(t, "只有一行", title)
	require.Empty(t, body)
}

func TestSplitContentBlocksEmpty(t *testing.T) {
	title, body := SplitContentBlocks("   ", true)
	require.Equal(t, "", title)
	require.Nil(t, body)
}

func TestBuildFlowItemsInterleave(t *testing.T) {
	content := "A" + ParagraphSeparator + "B" + ParagraphSeparator + "C"

	title, items := BuildFlowItems(content, []string{"img.png"}, []int{1}, false)
	require.Equal(t, "", title)
	require.Equal(t, []FlowItem{
		{Kind: FlowText, Value: "A"},
		{Kind: FlowImage, Value: "img.png"},
		{Kind: FlowText, Value: "B"},
		{Kind: FlowText, Value: "C"},
	}, items)
}

func TestBuildFlowItemsTitleCoordinateShift(t *testing.T) {
	content := "标题" + ParagraphSeparator + "正文一" + ParagraphSeparator + "正文二"

	// 槽位 1 在全文坐标中指向标题之后；标题抽出后应落到正文块 0 之前
	title, items := BuildFlowItems(content, []string{"a.png"}, []int{1}, true)
	require.Equal(t, "标题", title)
	require.Equal(t, []FlowItem{
		{Kind: FlowImage, Value: "a.png"},
		{Kind: FlowText, Value: "正文一"},
		{Kind: FlowText, Value: "正文二"},
	}, items)
}

func TestBuildFlowItemsTrailingImages(t *testing.T) {
	content := "唯一段落"

	_, items := BuildFlowItems(content, []string{"x.png", "y.png"}, []int{9, 9}, false)
	require.Equal(t, []FlowItem{
		{Kind: FlowText, Value: "唯一段落"},
		{Kind: FlowImage, Value: "x.png"},
		{Kind: FlowImage, Value: "y.png"},
	}, items)
}

func TestBuildFlowItemsImageOrderPreserved(t *testing.T) {
	content := "A" + ParagraphSeparator + "B"

	// 槽位乱序会被收敛为单调不减，图片顺序本身绝不改变
	_, items := BuildFlowItems(content, []string{"1.png", "2.png"}, []int{2, 0}, false)

	var urls []string
	for _, item := range items {
		if item.Kind == FlowImage {
			urls = append(urls, item.Value)
		}
	}
	require.Equal(t, []string{"1.png", "2.png"}, urls)
}
