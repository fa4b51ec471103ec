package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONRaw(t *testing.T) {
	result, err := ParseJSON(`{"score": 8, "issues": []}`)
	require.NoError(t, err)
	require.Equal(t, int64(8), result.Get("score").Int())
}

func TestParseJSONCodeFence(t *testing.T) {
	content := "```json\n{\"title\": \"测试\"}\n```"
	result, err := ParseJSON(content)
	require.NoError(t, err)
	require.Equal(t, "测试", result.Get("title").String())
}

func TestParseJSONProseWrapped(t *testing.T) {
	content := `好的，以下是结果：{"pages": [{"content": "第一页"}]} 希望有帮助。`
	result, err := ParseJSON(content)
	require.NoError(t, err)
	require.Len(t, result.Get("pages").Array(), 1)
}

func TestParseJSONBracesInsideStrings(t *testing.T) {
	content := `前缀 {"text": "含 } 花括号 { 的字符串"} 后缀`
	result, err := ParseJSON(content)
	require.NoError(t, err)
	require.Equal(t, "含 } 花括号 { 的字符串", result.Get("text").String())
}

func TestParseJSONArrayTopLevel(t *testing.T) {
	result, err := ParseJSON(`[1, 2, 3]`)
	require.NoError(t, err)
	require.Len(t, result.Array(), 3)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON("这不是 JSON")
	require.Error(t, err)

	_, err = ParseJSON("")
	require.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	require.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
	// 不配对的围栏原样返回
	require.Equal(t, "```json\n{\"a\":1}", StripCodeFence("```json\n{\"a\":1}"))
}
