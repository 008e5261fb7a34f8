package protocol

import "strings"

// ScanObjectAfter locates marker in s and returns the first balanced
// {...} object following it. Matching uses a brace depth counter, so
// nested objects are handled. The second return is false when no
// balanced object follows the marker.
func ScanObjectAfter(s, marker string) (string, bool) {
	at := strings.Index(s, marker)
	if at < 0 {
		return "", false
	}

	start := strings.IndexByte(s[at+len(marker):], '{')
	if start < 0 {
		return "", false
	}
	start += at + len(marker)

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
