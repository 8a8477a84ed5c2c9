package dispatch

import "strings"

// ParseCommand splits a command line into words. Single and double quotes
// group words; a backslash before the closing quote character escapes it.
func ParseCommand(cmd string) []string {
	if !strings.ContainsAny(cmd, `"'`) {
		return strings.Fields(cmd)
	}
	var (
		tokens []string
		token  []rune
		quote  rune
	)
	flush := func() {
		if len(token) > 0 {
			tokens = append(tokens, string(token))
			token = token[:0]
		}
	}
	for _, c := range cmd {
		switch {
		case c == '\'' || c == '"':
			switch {
			case quote == 0:
				quote = c
			case quote != c:
				token = append(token, c)
			case len(token) > 0 && token[len(token)-1] == '\\':
				token[len(token)-1] = c
			default:
				flush()
				quote = 0
			}
		case c == ' ' && quote == 0:
			flush()
		default:
			token = append(token, c)
		}
	}
	flush()
	return tokens
}
