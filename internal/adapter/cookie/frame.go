package cookie

import (
	"io"
	"strings"
)

// Wire format on the child's stdout:
//
//	[noise][reverse(start)][payload][reverse(end)][noise]
//
// The cookies are written reversed so that a debug hook echoing the child's
// argv cannot produce a false marker.

// Reverse returns s with its characters in reverse order.
func Reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// Wrap frames payload the way the bootstrap script does.
func Wrap(payload, start, end string) string {
	return Reverse(start) + payload + Reverse(end)
}

// Split recovers the payload bracketed by the reversed start and end cookies.
// prefix is everything before the start marker and suffix everything after
// the end marker. A missing marker is tolerated: the remaining text is then
// taken as payload.
func Split(out, start, end string) (prefix, payload, suffix string) {
	if i := strings.Index(out, Reverse(start)); i > -1 {
		prefix = out[:i]
		out = out[i+len(start):]
	}
	if i := strings.Index(out, Reverse(end)); i > -1 {
		suffix = out[i+len(end):]
		out = out[:i]
	}
	return prefix, out, suffix
}

// Extract splits out and forwards the noise around the payload to w
// verbatim. Write errors on w are ignored; noise is best effort.
func Extract(out, start, end string, w io.Writer) string {
	prefix, payload, suffix := Split(out, start, end)
	if prefix != "" {
		_, _ = io.WriteString(w, prefix)
	}
	if suffix != "" {
		_, _ = io.WriteString(w, suffix)
	}
	return payload
}
