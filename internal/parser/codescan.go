package parser

import "strings"

// fenceState tracks whether a line scan is inside a fenced code block.
type fenceState struct {
	inFence  bool
	fenceCh  byte
	fenceLen int
}

// update consumes one line and reports whether it is a fence marker
// (opening or closing).
func (fs *fenceState) update(line string) bool {
	s := strings.TrimLeft(line, " \t")
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return false
	}
	ch := s[0]
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	if n < 3 {
		return false
	}
	if !fs.inFence {
		fs.inFence = true
		fs.fenceCh = ch
		fs.fenceLen = n
		return true
	}
	if fs.fenceCh == ch && n >= fs.fenceLen {
		fs.inFence = false
		fs.fenceCh = 0
		fs.fenceLen = 0
		return true
	}
	return false
}

// maskInlineCode replaces inline code spans with spaces so token scans
// skip them while character positions stay stable. Handles multi-backtick
// delimiters, where a run of N backticks closes only on another run of N.
func maskInlineCode(line string) string {
	out := []byte(line)
	i := 0
	for i < len(out) {
		if out[i] != '`' {
			i++
			continue
		}
		start := i
		openLen := 0
		for i < len(out) && out[i] == '`' {
			openLen++
			i++
		}
		for j := i; j < len(out); j++ {
			if out[j] != '`' {
				continue
			}
			closeLen := 0
			end := j
			for end < len(out) && out[end] == '`' {
				closeLen++
				end++
			}
			if closeLen == openLen {
				for k := start; k < end; k++ {
					out[k] = ' '
				}
				i = end
				break
			}
			j = end - 1
		}
	}
	return string(out)
}
