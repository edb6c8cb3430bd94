package process

import (
	"errors"
	"strings"
)

var ErrEmptyCommand = errors.New("empty command line")

// SplitCommand splits a launch command line into argv. Arguments are
// separated by unquoted whitespace; single quotes keep their content
// literally, double quotes allow \" and \\ escapes, and a backslash outside
// quotes escapes the next character.
func SplitCommand(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			if quote == '"' && r != '"' && r != '\\' {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inArg = true
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, errors.New("unterminated quote in command line")
	}
	if escaped {
		return nil, errors.New("trailing backslash in command line")
	}
	if inArg {
		args = append(args, current.String())
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return args, nil
}
