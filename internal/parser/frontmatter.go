package parser

import "strings"

const fence = "---"

// SplitFrontmatter separates the front-matter block from the body. The
// header is present only when the very first line is exactly the three-dash
// fence and a later line closes it; both \n and \r\n endings are accepted.
// Malformed input never fails, it just yields an empty header.
func SplitFrontmatter(text string) (header, body string) {
	first, rest, hasMore := cutLine(text)
	if strings.TrimSuffix(first, "\r") != fence || !hasMore {
		return "", text
	}

	offset := 0
	for offset <= len(rest) {
		line, remainder, more := cutLine(rest[offset:])
		if strings.TrimSuffix(line, "\r") == fence {
			header = rest[:offset]
			// Trim the newline that terminated the last header line.
			header = strings.TrimSuffix(header, "\n")
			header = strings.TrimSuffix(header, "\r")
			return header, remainder
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}
	// No closing fence: the whole text is body.
	return "", text
}

// cutLine splits text at the first newline. hasMore reports whether a
// newline was found (i.e. rest is meaningful).
func cutLine(text string) (line, rest string, hasMore bool) {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i], text[i+1:], true
	}
	return text, "", false
}
