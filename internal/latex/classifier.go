// Package latex drives the typesetting toolchain and filters its output
// down to the handful of lines worth reading.
package latex

import "bytes"

// interestingPrefixes are matched byte-for-byte at the start of each raw
// log line: recoverable warnings (including the stale-label warning),
// layout complaints, fatal errors, and the error-context line. Everything
// else the tool prints is package and font chatter.
var interestingPrefixes = [][]byte{
	[]byte("LaTeX Warning:"),
	[]byte(`Overfull \hbox`),
	[]byte("!"),
	[]byte("l."),
}

// SplitLines splits captured tool output on the newline byte. Lines are
// opaque byte sequences; tool logs are not reliably valid UTF-8 and must
// never be decoded or re-encoded.
func SplitLines(output []byte) [][]byte {
	return bytes.Split(output, []byte{'\n'})
}

// Classify returns the ordered subsequence of lines considered
// interesting. No deduplication, no truncation, no reordering.
func Classify(lines [][]byte) [][]byte {
	var kept [][]byte
	for _, line := range lines {
		if Interesting(line) {
			kept = append(kept, line)
		}
	}
	return kept
}

// Interesting reports whether a single raw line starts with one of the
// fixed prefixes. Interior matches do not count.
func Interesting(line []byte) bool {
	for _, prefix := range interestingPrefixes {
		if bytes.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
