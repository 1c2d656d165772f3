package core

// FallbackColors is the deterministic palette for items without a colour.
var FallbackColors = []string{
	"#6366f1", "#ec4899", "#22c55e", "#f59e0b",
	"#0ea5e9", "#8b5cf6", "#ef4444", "#14b8a6",
}

// DefaultGoalColor is used for goals created without a colour.
const DefaultGoalColor = "#10b981"

// DefaultColor picks a palette colour by position.
func DefaultColor(i int) string {
	if i < 0 {
		i = -i
	}
	return FallbackColors[i%len(FallbackColors)]
}
