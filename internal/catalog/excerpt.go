// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"strings"
	"unicode/utf8"
)

// Excerpt creates a plain-text excerpt of body centered on the first
// occurrence of any query term. With no match it truncates from the
// start. Cuts land on rune boundaries so Arabic text stays intact.
func Excerpt(body, query string, maxLen int) string {
	body = strings.Join(strings.Fields(body), " ")
	if body == "" {
		return ""
	}

	firstMatch := -1
	for _, word := range strings.Fields(fold(query)) {
		if idx := foldIndex(body, word); idx != -1 {
			if firstMatch == -1 || idx < firstMatch {
				firstMatch = idx
			}
		}
	}

	if firstMatch == -1 {
		if len(body) > maxLen {
			return body[:runeBoundary(body, maxLen)] + "..."
		}
		return body
	}

	// Center the excerpt around the match
	start := firstMatch - maxLen/3
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(body) {
		end = len(body)
	}
	start = runeBoundary(body, start)
	end = runeBoundary(body, end)

	excerpt := body[start:end]
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(body) {
		excerpt += "..."
	}
	return excerpt
}

// foldIndex returns the byte offset in s of the first fold-insensitive
// occurrence of word, which must already be folded. Folding can change
// byte lengths (the sharp s folds to two letters), so offsets into the
// folded text cannot be used on s directly; a per-byte back-reference
// keeps them aligned.
func foldIndex(s, word string) int {
	if word == "" {
		return -1
	}

	var folded strings.Builder
	folded.Grow(len(s))
	back := make([]int, 0, len(s))
	for i, r := range s {
		f := fold(string(r))
		folded.WriteString(f)
		for j := 0; j < len(f); j++ {
			back = append(back, i)
		}
	}

	idx := strings.Index(folded.String(), word)
	if idx == -1 {
		return -1
	}
	return back[idx]
}

// runeBoundary moves idx back to the nearest rune start.
func runeBoundary(s string, idx int) int {
	for idx > 0 && idx < len(s) && !utf8.RuneStart(s[idx]) {
		idx--
	}
	return idx
}
