package template

import (
	"fmt"
	"strings"
)

// condFrame tracks one open #if block.
type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
	sawElse      bool
}

// Preprocess evaluates #if/#elif/#else/#endif directives against params,
// strips -- and # end-of-line comments from emitted lines, drops blank
// lines, and normalizes line terminators to \n. Multiline /* ... */
// comments pass through untouched since they carry optimizer hints.
func Preprocess(src string, params map[string]any) (string, error) {
	var (
		stack []condFrame
		out   []string
	)

	active := func() bool {
		for _, f := range stack {
			if !f.active {
				return false
			}
		}
		return true
	}

	for _, line := range splitLines(src) {
		trimmed := strings.TrimLeft(line, " \t")
		if name, rest, ok := directive(trimmed); ok {
			switch name {
			case "if":
				parent := active()
				on := false
				if parent {
					v, err := evalCond(rest, params)
					if err != nil {
						return "", err
					}
					on = v
				}
				stack = append(stack, condFrame{parentActive: parent, active: on, taken: on})
				continue
			case "elif":
				if len(stack) == 0 {
					return "", ErrUnmatchedBranch
				}
				f := &stack[len(stack)-1]
				if f.sawElse {
					return "", ErrBranchAfterElse
				}
				f.active = false
				if f.parentActive && !f.taken {
					v, err := evalCond(rest, params)
					if err != nil {
						return "", err
					}
					f.active = v
					f.taken = f.taken || v
				}
				continue
			case "else":
				if len(stack) == 0 {
					return "", ErrUnmatchedBranch
				}
				f := &stack[len(stack)-1]
				if f.sawElse {
					return "", ErrBranchAfterElse
				}
				f.sawElse = true
				f.active = f.parentActive && !f.taken
				f.taken = f.taken || f.active
				continue
			case "endif":
				if len(stack) == 0 {
					return "", ErrUnmatchedEndif
				}
				stack = stack[:len(stack)-1]
				continue
			}
		}

		if !active() {
			continue
		}
		line = stripLineComments(line)
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("%w (%d open)", ErrUnterminatedIf, len(stack))
	}
	return strings.Join(out, "\n"), nil
}

// directive recognizes #if/#elif/#else/#endif at the start of a trimmed
// line and returns the directive name and the remainder of the line. Other
// #-prefixed text is an end-of-line comment, not a directive, so directive
// detection must run before comment stripping.
func directive(trimmed string) (name, rest string, ok bool) {
	if !strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	body := trimmed[1:]
	if body == "" || !isIdentStart(body[0]) {
		return "", "", false
	}
	i := 1
	for i < len(body) && isIdentChar(body[i]) {
		i++
	}
	word := body[:i]
	switch word {
	case "if", "elif", "else", "endif":
		return word, strings.TrimSpace(body[i:]), true
	}
	return "", "", false
}

// stripLineComments removes -- and # comments from a line, honoring string
// literals so comment markers inside quoted text survive.
func stripLineComments(line string) string {
	inLiteral := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inLiteral {
			switch c {
			case '\\':
				i++
			case '\'':
				if i+1 < len(line) && line[i+1] == '\'' {
					i++
				} else {
					inLiteral = false
				}
			}
			continue
		}
		switch {
		case c == '\'':
			inLiteral = true
		case c == '#':
			return line[:i]
		case c == '-' && i+1 < len(line) && line[i+1] == '-':
			return line[:i]
		}
	}
	return line
}

// splitLines splits on \n, \r\n, or bare \r.
func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	return strings.Split(src, "\n")
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
