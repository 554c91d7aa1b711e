package ingest

import (
	"strings"
	"unicode/utf8"
)

// separators ordered from the one that keeps the most meaning together to a plain rune cut
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// splitTextIntoChunks breaks text into pieces of at most limit runes, preferring
// paragraph then line then sentence then word boundaries. Consecutive chunks share
// up to overlap runes of trailing context.
func splitTextIntoChunks(text string, limit int, overlap int) []string {
	if limit <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= limit {
		overlap = 0
	}
	var chunks []string
	for _, c := range splitRecursive(text, separators, limit, overlap) {
		if c = strings.TrimSpace(c); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func splitRecursive(text string, seps []string, limit, overlap int) []string {
	sep, rest := pickSeparator(text, seps)
	parts := splitKeepSeparator(text, sep)

	var out []string
	var pending []string
	for _, part := range parts {
		if runeLen(part) <= limit {
			pending = append(pending, part)
			continue
		}
		if len(pending) > 0 {
			out = append(out, mergeWithOverlap(pending, limit, overlap)...)
			pending = nil
		}
		if len(rest) == 0 {
			out = append(out, hardCut(part, limit)...)
		} else {
			out = append(out, splitRecursive(part, rest, limit, overlap)...)
		}
	}
	if len(pending) > 0 {
		out = append(out, mergeWithOverlap(pending, limit, overlap)...)
	}
	return out
}

// pickSeparator returns the first separator present in text and the ones after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

// splitKeepSeparator splits on sep and glues sep back onto the end of each part,
// so joining the parts gives back the input.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.SplitAfter(text, sep)
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func mergeWithOverlap(parts []string, limit, overlap int) []string {
	var chunks []string
	var window []string
	size := 0

	for _, part := range parts {
		n := runeLen(part)
		if size+n > limit && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, ""))
			for size > overlap || (size+n > limit && size > 0) {
				size -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, part)
		size += n
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

func hardCut(text string, limit int) []string {
	var out []string
	runes := []rune(text)
	for len(runes) > 0 {
		end := min(limit, len(runes))
		out = append(out, string(runes[:end]))
		runes = runes[end:]
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
