package card

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rednote_card_maker/llm"
)

// 1×1 透明 PNG
const tinyPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func writeTinyPNG(t *testing.T) string {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyPNGBase64)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tiny.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestAnalyzeMissingFileReturnsDefaults(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(context.Background(), "no/such/image.png", t.TempDir())

	require.Equal(t, "no/such/image.png", got.Path)
	require.Equal(t, "配图", got.Description)
	require.Equal(t, "neutral", got.Mood)
	require.Equal(t, "inline", got.SuggestedPosition)
}

func TestAnalyzeWithoutClientProbesDimensions(t *testing.T) {
	path := writeTinyPNG(t)

	a := NewAnalyzer(nil)
	got := a.Analyze(context.Background(), path, "")

	require.Equal(t, 1, got.Width)
	require.Equal(t, 1, got.Height)
	require.Equal(t, 1.0, got.AspectRatio)
	require.False(t, got.IsVertical())
}

func TestAnalyzeCoercesVisionResult(t *testing.T) {
	path := writeTinyPNG(t)

	mock := &llm.Mock{Responses: []string{
		`{"description": "一张街景照片", "mood": "warm", "tags": ["街拍", "城市"], "suggested_position": "cover"}`,
	}}

	a := NewAnalyzer(mock)
	got := a.Analyze(context.Background(), path, "")

	require.Equal(t, "一张街景照片", got.Description)
	require.Equal(t, "warm", got.Mood)
	require.Equal(t, []string{"街拍", "城市"}, got.Tags)
	require.Equal(t, "cover", got.SuggestedPosition)
	require.Equal(t, 1, mock.ImageCalls)
}

func TestAnalyzeRejectsUnknownEnums(t *testing.T) {
	path := writeTinyPNG(t)

	// 不在枚举里的 mood/position 保持默认值
	mock := &llm.Mock{Responses: []string{
		`{"description": "描述", "mood": "angry", "suggested_position": "floating"}`,
	}}

	a := NewAnalyzer(mock)
	got := a.Analyze(context.Background(), path, "")

	require.Equal(t, "描述", got.Description)
	require.Equal(t, "neutral", got.Mood)
	require.Equal(t, "inline", got.SuggestedPosition)
}

func TestAnalyzeVisionFailureKeepsDefaults(t *testing.T) {
	path := writeTinyPNG(t)

	mock := &llm.Mock{Err: context.DeadlineExceeded}

	a := NewAnalyzer(mock)
	got := a.Analyze(context.Background(), path, "")

	require.Equal(t, "配图", got.Description)
	require.Equal(t, 1, got.Width)
}

func TestMimeFromExt(t *testing.T) {
	require.Equal(t, "image/jpeg", mimeFromExt("a.JPG"))
	require.Equal(t, "image/webp", mimeFromExt("b.webp"))
	require.Equal(t, "image/png", mimeFromExt("c.png"))
	require.Equal(t, "image/png", mimeFromExt("d.unknown"))
}
