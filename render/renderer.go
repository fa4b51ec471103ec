package render

import (
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// 卡片标准尺寸 3:4 (1080×1440) 及版面常量。
const (
	CardWidth  = 1080
	CardHeight = 1440

	paddingX      = 80
	paddingTop    = 92
	paddingBottom = 74

	bodyFontSize  = 32.0
	titleFontSize = 40.0
	pageFontSize  = 24.0

	lineHeight = 50
	blockGap   = 24

	imageMinHeight = 180
	imageMaxHeight = 320
	imageCorner    = 22

	htmlWidth  = 420
	htmlHeight = 560
)

// PreviewResult 一页的双渲染产物，整体替换、从不修改。
type PreviewResult struct {
	ImageBytes []byte
	HTML       string
	Width      int
	Height     int
}

// Renderer 小红书卡片预览渲染器。实例（含字体缓存）归单个任务独占，
// 不在并发任务间共享。
type Renderer struct {
	Width  int
	Height int

	baseDir string
	style   VisualStyle
	fonts   *fontCache
	http    *http.Client
}

// NewRenderer 创建渲染器。fontPath 为空时按系统候选路径探测中文字体。
func NewRenderer(fontPath, baseDir string, style VisualStyle) *Renderer {
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	return &Renderer{
		Width:   CardWidth,
		Height:  CardHeight,
		baseDir: baseDir,
		style:   style.withDefaults(),
		fonts:   newFontCache(fontPath),
		http:    &http.Client{Timeout: 8 * time.Second},
	}
}

// SetBaseDir 更新解析本地图片引用的基准目录。
func (r *Renderer) SetBaseDir(dir string) {
	if dir != "" {
		r.baseDir = dir
	}
}

// Render 同时产出 PNG 与 HTML 两种表现。
func (r *Renderer) Render(content string, pageNumber int, imageURLs []string, imageSlots []int, totalPages int, useTitle bool) (PreviewResult, error) {
	imageBytes, err := r.RenderToImage(content, pageNumber, imageURLs, imageSlots, totalPages, useTitle)
	if err != nil {
		return PreviewResult{}, err
	}
	html := r.RenderToHTML(content, pageNumber, imageURLs, imageSlots, totalPages, useTitle)
	return PreviewResult{
		ImageBytes: imageBytes,
		HTML:       html,
		Width:      r.Width,
		Height:     r.Height,
	}, nil
}

// SavePreview 渲染并落盘单页预览（PNG + HTML）。
func (r *Renderer) SavePreview(content string, outputDir string, pageNumber int, prefix string, imageURLs []string, imageSlots []int, totalPages int, useTitle bool) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", err
	}

	result, err := r.Render(content, pageNumber, imageURLs, imageSlots, totalPages, useTitle)
	if err != nil {
		return "", "", err
	}

	imgPath := filepath.Join(outputDir, fmt.Sprintf("%s_page_%d.png", prefix, pageNumber))
	if err := os.WriteFile(imgPath, result.ImageBytes, 0o644); err != nil {
		return "", "", err
	}
	htmlPath := filepath.Join(outputDir, fmt.Sprintf("%s_page_%d.html", prefix, pageNumber))
	if err := os.WriteFile(htmlPath, []byte(result.HTML), 0o644); err != nil {
		return "", "", err
	}

	log.Printf("[render] preview saved: %s, %s", imgPath, htmlPath)
	return imgPath, htmlPath, nil
}

// loadImage 加载本地文件、staged 上传或远程 URL。失败返回 error，
// 调用方降级为占位框。
func (r *Renderer) loadImage(imageURL string) (image.Image, error) {
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		resp, err := r.http.Get(imageURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", imageURL, resp.StatusCode)
		}
		return imaging.Decode(resp.Body)
	}

	if strings.HasPrefix(imageURL, "/api/images/") {
		staged := filepath.Join(r.baseDir, "api_images", filepath.Base(imageURL))
		if _, err := os.Stat(staged); err == nil {
			return imaging.Open(staged)
		}
	}

	path := imageURL
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return imaging.Open(path)
}

// fitCoverImage 等比放大后居中裁剪，铺满目标框。
func fitCoverImage(img image.Image, targetW, targetH int) image.Image {
	return imaging.Fill(img, targetW, targetH, imaging.Center, imaging.Lanczos)
}

// estimateImageHeight 自适应图片高度：约 0.62 宽高比，受上下限与剩余空间约束。
func estimateImageHeight(contentWidth, availableHeight int) int {
	height := int(float64(contentWidth) * 0.62)
	if height < imageMinHeight {
		height = imageMinHeight
	}
	if height > imageMaxHeight {
		height = imageMaxHeight
	}
	if height > availableHeight {
		height = availableHeight
	}
	return height
}
