package render

import (
	"fmt"
	"html/template"
	"strings"
)

type canvas struct {
	b      strings.Builder
	width  float64
	height float64
}

func newCanvas(width, height float64, title, desc, idBase string) *canvas {
	c := &canvas{width: width, height: height}
	titleID := makeID(idBase, "title")
	descID := makeID(idBase, "desc")
	fmt.Fprintf(&c.b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %.0f %.0f\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&c.b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(title))
	fmt.Fprintf(&c.b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(desc))
	return c
}

// placeholder draws centred grey text in place of a chart.
func (c *canvas) placeholder(text string) {
	c.text(c.width/2, c.height/2, text, placeholderColor, 14, "middle", false)
}

func (c *canvas) text(x, y float64, s, color string, size int, anchor string, bold bool) {
	weight := ""
	if bold {
		weight = " font-weight=\"bold\""
	}
	fmt.Fprintf(&c.b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"%d\" font-family=\"system-ui\" text-anchor=\"%s\"%s>%s</text>",
		x, y, attr(color), size, anchor, weight, template.HTMLEscapeString(s))
}

func (c *canvas) raw(format string, args ...any) {
	fmt.Fprintf(&c.b, format, args...)
}

func (c *canvas) html() template.HTML {
	c.b.WriteString("</svg>")
	return template.HTML(c.b.String())
}

func attr(s string) string {
	return template.HTMLEscapeString(s)
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}
