package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// splits a slash command into its name and arguments. Plain text yields an
// empty name.
func parseInput(line string) (string, []string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return "", nil
	}

	return strings.ToLower(fields[0]), fields[1:]
}

// renders intensity (0..100) as a bar width cells wide
func moodGauge(intensity float64, width int) string {
	if width <= 0 {
		return ""
	}

	intensity = math.Max(0, math.Min(100, intensity))
	filled := int(math.Round(intensity / 100 * float64(width)))

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// "👍 2  🎉 1", emojis in a stable order
func formatReactions(reactions map[string][]string) string {
	if len(reactions) == 0 {
		return ""
	}

	emojis := make([]string, 0, len(reactions))
	for emoji := range reactions {
		emojis = append(emojis, emoji)
	}
	sort.Strings(emojis)

	parts := make([]string, 0, len(emojis))
	for _, emoji := range emojis {
		parts = append(parts, fmt.Sprintf("%s %d", emoji, len(reactions[emoji])))
	}

	return strings.Join(parts, "  ")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
