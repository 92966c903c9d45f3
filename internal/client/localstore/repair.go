package localstore

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
)

// repair applies best-effort textual fixes to a stored snapshot that failed
// to parse:
//
//   - leading BOM, NUL bytes and surrounding whitespace are stripped;
//   - a snapshot stored as a JSON string (serialized twice) is unwrapped;
//   - raw control characters inside strings are escaped;
//   - backslashes that do not start a valid escape are doubled;
//   - trailing commas before '}' or ']' are removed;
//   - text after the end of the top-level object is dropped;
//   - a truncated document is closed.
func repair(raw []byte) []byte {
	b := bytes.ReplaceAll(raw, []byte{0}, nil)
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	b = bytes.TrimSpace(b)

	if len(b) > 0 && b[0] == '"' {
		var inner string
		if err := json.Unmarshal(b, &inner); err == nil {
			b = bytes.TrimSpace([]byte(inner))
		}
	}

	return []byte(repairText(string(b)))
}

func repairText(s string) string {
	var (
		out      strings.Builder
		stack    []byte
		inString bool
	)
	out.Grow(len(s) + 8)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case c == '\\':
				if i+1 < len(s) && validEscape(s, i+1) {
					out.WriteByte(c)
					out.WriteByte(s[i+1])
					i++
				} else {
					out.WriteString(`\\`)
				}
			case c == '"':
				inString = false
				out.WriteByte(c)
			case c < 0x20:
				out.WriteString(escapeControl(c))
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			out.WriteByte(c)
		case '{':
			stack = append(stack, '}')
			out.WriteByte(c)
		case '[':
			stack = append(stack, ']')
			out.WriteByte(c)
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				// unbalanced closer, drop it
				continue
			}
			stack = stack[:len(stack)-1]
			out.WriteByte(c)
			if len(stack) == 0 {
				// end of the top-level value
				return out.String()
			}
		case ',':
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}

	res := out.String()
	if inString {
		res += `"`
	}
	if len(stack) > 0 {
		res = strings.TrimRight(res, " \t\r\n,")
		if strings.HasSuffix(res, ":") {
			res += "null"
		}
		for i := len(stack) - 1; i >= 0; i-- {
			res += string(stack[i])
		}
	}
	return res
}

func validEscape(s string, i int) bool {
	switch s[i] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return true
	case 'u':
		if i+4 >= len(s) {
			return false
		}
		for _, h := range s[i+1 : i+5] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", h) {
				return false
			}
		}
		return true
	}
	return false
}

func escapeControl(c byte) string {
	switch c {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	const hex = "0123456789abcdef"
	return `\u00` + string([]byte{hex[c>>4], hex[c&0xf]})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
