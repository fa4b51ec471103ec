package card

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"rednote_card_maker/llm"
)

// AnalysisSystemPrompt 图片分析提示词。
const AnalysisSystemPrompt = `你是一个图片分析专家，专门为小红书内容创作提供图片分析服务。

分析图片并返回JSON格式的结果，包含以下字段：
- description: 图片内容的简短描述（中文，20-50字）
- mood: 图片的情感氛围，只能是以下之一：warm、cool、vibrant、neutral
- tags: 3-5个相关标签（中文）
- suggested_position: 建议位置，只能是以下之一：cover、inline、ending

只返回JSON，不要其他内容。`

const analysisUserPrompt = `请分析这张图片，为小红书内容创作提供建议。

返回格式：
{
    "description": "图片描述",
    "mood": "warm|cool|vibrant|neutral",
    "tags": ["标签1", "标签2", "标签3"],
    "suggested_position": "cover|inline|ending"
}`

var allowedMoods = map[string]bool{"warm": true, "cool": true, "vibrant": true, "neutral": true}
var allowedPositions = map[string]bool{"cover": true, "inline": true, "ending": true}

// Analyzer 多模态图片分析器。
type Analyzer struct {
	client llm.Client
	http   *http.Client
}

func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{
		client: client,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Analyze 分析单张图片。任何失败都降级为带默认字段的结果，不中断流水线。
func (a *Analyzer) Analyze(ctx context.Context, pathOrURL string, baseDir string) ImageAnalysis {
	analysis := ImageAnalysis{
		Path:              pathOrURL,
		Description:       "配图",
		Mood:              "neutral",
		SuggestedPosition: "inline",
	}

	data, mime, err := a.loadImageBytes(pathOrURL, baseDir)
	if err != nil {
		log.Printf("[analyzer] failed to load image %s: %v", pathOrURL, err)
		return analysis
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		analysis.Width = cfg.Width
		analysis.Height = cfg.Height
		if cfg.Height > 0 {
			analysis.AspectRatio = float64(cfg.Width) / float64(cfg.Height)
		}
	}

	if a.client == nil {
		return analysis
	}

	result, err := a.client.ChatWithImage(ctx, llm.ImageRequest{
		SystemPrompt: AnalysisSystemPrompt,
		UserPrompt:   analysisUserPrompt,
		ImageBytes:   data,
		ImageMIME:    mime,
		Temperature:  0.3,
		MaxTokens:    500,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("[analyzer] vision analysis failed for %s: %v", pathOrURL, err)
		return analysis
	}

	parsed, err := llm.ParseJSON(result.Content)
	if err != nil || !parsed.IsObject() {
		return analysis
	}

	if desc := strings.TrimSpace(parsed.Get("description").String()); desc != "" {
		analysis.Description = desc
	}
	if mood := strings.TrimSpace(parsed.Get("mood").String()); allowedMoods[mood] {
		analysis.Mood = mood
	}
	for _, tag := range parsed.Get("tags").Array() {
		if s := strings.TrimSpace(tag.String()); s != "" {
			analysis.Tags = append(analysis.Tags, s)
		}
	}
	if pos := strings.TrimSpace(parsed.Get("suggested_position").String()); allowedPositions[pos] {
		analysis.SuggestedPosition = pos
	}

	return analysis
}

func (a *Analyzer) loadImageBytes(pathOrURL, baseDir string) ([]byte, string, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return a.downloadImage(pathOrURL)
	}

	path := pathOrURL
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, mimeFromExt(path), nil
}

func (a *Analyzer) downloadImage(url string) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mime := mimeFromContentType(resp.Header.Get("Content-Type"))
	if mime == "" {
		mime = mimeFromExt(url)
	}
	return data, mime, nil
}

func mimeFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "image/jpeg"
	case strings.Contains(ct, "png"):
		return "image/png"
	case strings.Contains(ct, "gif"):
		return "image/gif"
	case strings.Contains(ct, "webp"):
		return "image/webp"
	default:
		return ""
	}
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
