package render

import (
	"log"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// 中文正文字体候选路径，按顺序探测。
var textFontPaths = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/System/Library/Fonts/PingFang.ttc",
	"/Library/Fonts/Arial Unicode.ttf",
	"C:/Windows/Fonts/msyh.ttc",
	"C:/Windows/Fonts/simhei.ttf",
}

var emojiFontPaths = []string{
	"/usr/share/fonts/truetype/noto/NotoColorEmoji.ttf",
	"/System/Library/Fonts/Apple Color Emoji.ttc",
	"C:/Windows/Fonts/seguiemj.ttf",
}

// fontCache 渲染器实例私有的字体缓存：按字号懒加载 font.Face。
// 单任务单线程使用，无需加锁；跨任务并发时每个任务持有自己的渲染器。
type fontCache struct {
	primary *truetype.Font
	emoji   *truetype.Font

	faces      map[float64]font.Face
	emojiFaces map[float64]font.Face
}

func newFontCache(fontPath string) *fontCache {
	c := &fontCache{
		faces:      map[float64]font.Face{},
		emojiFaces: map[float64]font.Face{},
	}

	candidates := textFontPaths
	if fontPath != "" {
		candidates = append([]string{fontPath}, textFontPaths...)
	}
	c.primary = loadFirstFont(candidates)
	if c.primary == nil {
		log.Printf("[render] no usable text font found, falling back to width estimates")
	}

	// emoji 字体缺失时退化为主字体宽度，不报错
	c.emoji = loadFirstFont(emojiFontPaths)

	return c
}

func loadFirstFont(paths []string) *truetype.Font {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			// .ttc 集合或彩色 emoji 字体可能解析失败，换下一个候选
			continue
		}
		return parsed
	}
	return nil
}

func (c *fontCache) face(size float64) font.Face {
	if f, ok := c.faces[size]; ok {
		return f
	}
	if c.primary == nil {
		return nil
	}
	f := truetype.NewFace(c.primary, &truetype.Options{Size: size})
	c.faces[size] = f
	return f
}

func (c *fontCache) emojiFace(size float64) font.Face {
	if f, ok := c.emojiFaces[size]; ok {
		return f
	}
	if c.emoji == nil {
		return nil
	}
	f := truetype.NewFace(c.emoji, &truetype.Options{Size: size})
	c.emojiFaces[size] = f
	return f
}

// faceFor 按字符选择字体：emoji 码位走 emoji 字体，其余走主字体。
func (c *fontCache) faceFor(r rune, size float64) font.Face {
	if IsEmoji(r) {
		if f := c.emojiFace(size); f != nil {
			return f
		}
	}
	return c.face(size)
}

// advance 单字符步进宽度（像素）。无可用字体时按字符类别粗估。
func (c *fontCache) advance(r rune, size float64) float64 {
	face := c.faceFor(r, size)
	if face != nil {
		if adv, ok := face.GlyphAdvance(r); ok {
			return float64(adv) / 64.0
		}
	}
	return estimateAdvance(r, size)
}

// Measure 混排文本总宽度：逐字符分派字体后求和。
func (c *fontCache) Measure(text string, size float64) float64 {
	total := 0.0
	for _, r := range text {
		total += c.advance(r, size)
	}
	return total
}

// estimateAdvance 无字体时的宽度粗估：CJK/emoji 全宽，拉丁约 0.6 字宽。
func estimateAdvance(r rune, size float64) float64 {
	if r < 0x2000 {
		return size * 0.6
	}
	return size
}

// IsEmoji 判断字符是否落在 emoji 码位区间。
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2702 && r <= 0x27B0:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r == 0x200D:
		return true
	case r >= 0x25A0 && r <= 0x25FF:
		return true
	case r >= 0x231A && r <= 0x231B:
		return true
	case r >= 0x2934 && r <= 0x2935:
		return true
	case r >= 0x2B05 && r <= 0x2B1C:
		return true
	default:
		return false
	}
}
