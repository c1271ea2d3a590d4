package chart

import "strings"

// Palette holds resolved colors for one theme. Chart colors are resolved
// once per render from it.
type Palette struct {
	Theme     string
	Accent    string
	Red       string
	Amber     string
	Green     string
	Purple    string
	Cyan      string
	Lime      string
	Text      string
	Muted     string
	Border    string
	TooltipBg string
}

// Dark is the default theme.
var Dark = Palette{
	Theme:     "dark",
	Accent:    "#3b82f6",
	Red:       "#ef4444",
	Amber:     "#f59e0b",
	Green:     "#10b981",
	Purple:    "#8b5cf6",
	Cyan:      "#06b6d4",
	Lime:      "#84cc16",
	Text:      "#f1f5f9",
	Muted:     "#94a3b8",
	Border:    "#263356",
	TooltipBg: "#0a1628",
}

var Light = Palette{
	Theme:     "light",
	Accent:    "#2563eb",
	Red:       "#dc2626",
	Amber:     "#d97706",
	Green:     "#059669",
	Purple:    "#7c3aed",
	Cyan:      "#0891b2",
	Lime:      "#65a30d",
	Text:      "#0f172a",
	Muted:     "#64748b",
	Border:    "#cbd5e1",
	TooltipBg: "#ffffff",
}

// PaletteFor returns the palette for a theme name, Dark when unknown.
func PaletteFor(theme string) Palette {
	if strings.EqualFold(strings.TrimSpace(theme), "light") {
		return Light
	}
	return Dark
}

// Color resolves a named color key such as "accent" or "lime".
func (p Palette) Color(key string) string {
	switch key {
	case "accent":
		return p.Accent
	case "red":
		return p.Red
	case "amber":
		return p.Amber
	case "green":
		return p.Green
	case "purple":
		return p.Purple
	case "cyan":
		return p.Cyan
	case "lime":
		return p.Lime
	case "muted":
		return p.Muted
	default:
		return p.Text
	}
}

// Sign picks red for positive, green for negative and muted for zero.
func (p Palette) Sign(v int64) string {
	switch {
	case v > 0:
		return p.Red
	case v < 0:
		return p.Green
	default:
		return p.Muted
	}
}
