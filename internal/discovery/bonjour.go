package discovery

import "strings"

// DecodeBonjourEscapes decodes DNS-SD service instance escapes.
// "\DDD" is a decimal byte value and "\X" is a literal X. Multi-byte UTF-8
// sequences arrive as consecutive decimal escapes, so bytes are collected
// before conversion.
func DecodeBonjourEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}

		if i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			v := int(s[i+1]-'0')*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
			if v <= 255 {
				out = append(out, byte(v))
				i += 3
				continue
			}
		}

		// "\X" → X
		out = append(out, s[i+1])
		i++
	}
	return string(out)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
