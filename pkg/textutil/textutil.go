// Package textutil provides small text search and splitting helpers.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// LeftOf returns the text before the first occurrence of search.
// If search does not occur, the whole text is returned.
func LeftOf(text, search string, caseSensitive bool) string {
	pos, _ := index(text, search, caseSensitive)
	if pos < 0 {
		return text
	}
	return text[:pos]
}

// LeftOfLast returns the text before the last occurrence of search.
// If search does not occur, an empty string is returned.
func LeftOfLast(text, search string, caseSensitive bool) string {
	pos, _ := lastIndex(text, search, caseSensitive)
	if pos < 0 {
		return ""
	}
	return text[:pos]
}

// RightOf returns the text after the first occurrence of search.
// If search does not occur, an empty string is returned.
func RightOf(text, search string, caseSensitive bool) string {
	pos, n := index(text, search, caseSensitive)
	if pos < 0 {
		return ""
	}
	return text[pos+n:]
}

// RightOfLast returns the text after the last occurrence of search.
// If search does not occur, the whole text is returned.
func RightOfLast(text, search string, caseSensitive bool) string {
	pos, n := lastIndex(text, search, caseSensitive)
	if pos < 0 {
		return text
	}
	return text[pos+n:]
}

// Split breaks text at every occurrence of delimiter. Each part has the
// characters in omit trimmed from both ends. Empty parts are kept only
// when addEmpty is set.
func Split(text, delimiter, omit string, addEmpty bool) []string {
	var parts []string
	if delimiter == "" {
		parts = []string{text}
	} else {
		parts = strings.Split(text, delimiter)
	}

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if omit != "" {
			part = strings.Trim(part, omit)
		}
		if addEmpty || part != "" {
			result = append(result, part)
		}
	}
	return result
}

// index returns the byte offset and byte length of the first match.
func index(text, search string, caseSensitive bool) (int, int) {
	if caseSensitive {
		return strings.Index(text, search), len(search)
	}
	if search == "" {
		return 0, 0
	}
	runes := utf8.RuneCountInString(search)
	for i := range text {
		if n := foldMatch(text[i:], search, runes); n >= 0 {
			return i, n
		}
	}
	return -1, 0
}

// lastIndex returns the byte offset and byte length of the last match.
func lastIndex(text, search string, caseSensitive bool) (int, int) {
	if caseSensitive {
		return strings.LastIndex(text, search), len(search)
	}
	if search == "" {
		return len(text), 0
	}
	runes := utf8.RuneCountInString(search)
	pos, length := -1, 0
	for i := range text {
		if n := foldMatch(text[i:], search, runes); n >= 0 {
			pos, length = i, n
		}
	}
	return pos, length
}

// foldMatch reports the byte length of the prefix of text that equals
// search under case folding, or -1.
func foldMatch(text, search string, runes int) int {
	end := 0
	for r := 0; r < runes; r++ {
		if end >= len(text) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	if strings.EqualFold(text[:end], search) {
		return end
	}
	return -1
}
