package chat

import "strings"

// SplitMessage breaks text into chunks of at most limit runes, preferring
// newline boundaries so formatted answers stay readable. limit <= 0 returns
// the text unchanged.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)

		// Hard-split lines longer than the limit.
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		needed := len(runes)
		if curLen > 0 {
			needed++ // rejoining newline
		}
		if curLen+needed > limit {
			flush()
		}
		if curLen > 0 {
			current.WriteString("\n")
			curLen++
		}
		current.WriteString(string(runes))
		curLen += len(runes)
	}
	flush()

	return chunks
}
