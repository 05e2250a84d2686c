package dataset

import (
	"strings"
)

// labelPrefix is inserted after "_:" in every blank node label written in
// the source. The decoder names anonymous nodes and collection cells
// "_:b1", "_:b2", ... in the same label space, so a written label must
// never take that shape.
const labelPrefix = "x"

// relabelBlankNodes rewrites the blank node labels of a Turtle document to
// "_:x<label>". String literals, IRIs and comments are copied untouched.
func relabelBlankNodes(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 16)

	for i := 0; i < len(src); {
		c := src[i]

		switch {
		case c == '<':
			i = copyUntil(&b, src, i, ">")
		case c == '#':
			i = copyUntil(&b, src, i, "\n")
		case c == '"' || c == '\'':
			i = copyString(&b, src, i)
		case c == '\\' && i+1 < len(src):
			b.WriteString(src[i : i+2])
			i += 2
		case c == '_' && strings.HasPrefix(src[i:], "_:") && startsToken(src, i):
			b.WriteString("_:" + labelPrefix)
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// startsToken reports whether position i begins a new token rather than
// continuing a prefixed name such as ex:a_:b.
func startsToken(src string, i int) bool {
	if i == 0 {
		return true
	}

	switch src[i-1] {
	case ' ', '\t', '\r', '\n', '(', ')', '[', ']', '{', '}', ',', ';', '>':
		return true
	default:
		return false
	}
}

// copyUntil copies src[i:] up to and including the first end after i, or
// to the end of src.
func copyUntil(b *strings.Builder, src string, i int, end string) int {
	n := strings.Index(src[i+1:], end)
	if n < 0 {
		b.WriteString(src[i:])
		return len(src)
	}

	stop := i + 1 + n + len(end)
	b.WriteString(src[i:stop])

	return stop
}

// copyString copies a short or long quoted literal starting at i.
func copyString(b *strings.Builder, src string, i int) int {
	quote := src[i : i+1]
	if long := strings.Repeat(quote, 3); strings.HasPrefix(src[i:], long) {
		quote = long
	}

	j := i + len(quote)
	for j < len(src) {
		if src[j] == '\\' {
			j += 2
			continue
		}
		if strings.HasPrefix(src[j:], quote) {
			j += len(quote)
			for extra := 0; len(quote) == 3 && extra < 2 && j < len(src) && src[j] == quote[0]; extra++ {
				j++
			}
			break
		}
		j++
	}

	if j > len(src) {
		j = len(src)
	}
	b.WriteString(src[i:j])

	return j
}
