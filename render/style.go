// Package render 把页面内容渲染为 3:4 小红书卡片：PNG 栅格与自包含 HTML 双输出。
package render

// VisualStyle 卡片视觉样式（模板数据，可由配置覆盖）。
type VisualStyle struct {
	CardBG       string `json:"card_bg,omitempty"`
	TextColor    string `json:"text_color,omitempty"`
	TitleColor   string `json:"title_color,omitempty"`
	AccentColor  string `json:"accent_color,omitempty"`
	FontFamily   string `json:"font_family,omitempty"`
	BorderRadius string `json:"border_radius,omitempty"`
	Shadow       string `json:"shadow,omitempty"`
}

// DefaultVisualStyle 奶油底暖色默认样式。
func DefaultVisualStyle() VisualStyle {
	return VisualStyle{
		CardBG:       "#fffdf9",
		TextColor:    "#333333",
		TitleColor:   "#1a1a1a",
		AccentColor:  "#c0b8a8",
		FontFamily:   `"Noto Sans SC", -apple-system, BlinkMacSystemFont, "PingFang SC", "Hiragino Sans GB", "Microsoft YaHei", sans-serif`,
		BorderRadius: "12px",
		Shadow:       "0 2px 20px rgba(0,0,0,0.08)",
	}
}

func (s VisualStyle) withDefaults() VisualStyle {
	def := DefaultVisualStyle()
	if s.CardBG == "" {
		s.CardBG = def.CardBG
	}
	if s.TextColor == "" {
		s.TextColor = def.TextColor
	}
	if s.TitleColor == "" {
		s.TitleColor = def.TitleColor
	}
	if s.AccentColor == "" {
		s.AccentColor = def.AccentColor
	}
	if s.FontFamily == "" {
		s.FontFamily = def.FontFamily
	}
	if s.BorderRadius == "" {
		s.BorderRadius = def.BorderRadius
	}
	if s.Shadow == "" {
		s.Shadow = def.Shadow
	}
	return s
}
