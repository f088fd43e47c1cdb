package command

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Tokenize splits line into words using POSIX shell quoting: single quotes are
// literal, double quotes allow backslash escapes of \ " $ and `, and a
// backslash outside quotes escapes the next character. Malformed quoting never
// fails; the line is split on whitespace instead.
func Tokenize(line string) []string {
	words, err := shellquote.Split(line)
	if err != nil || len(words) == 0 {
		// A line of escaped newlines splits to nothing; whitespace still finds words.
		words = strings.Fields(line)
	}
	if len(words) == 0 {
		return nil
	}
	return words
}
