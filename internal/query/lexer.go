package query

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokPageRef
	tokString
	tokWord
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokPageRef:
		return "page-ref"
	case tokString:
		return "string"
	case tokWord:
		return "word"
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	// text is the payload: the inner name of a page ref, the unquoted
	// content of a string, or the raw word.
	text string
}

// tokenize splits a query into tokens. It never fails: an unterminated page
// ref or string runs to the end of the input.
func tokenize(input string) []token {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case strings.HasPrefix(input[i:], "[["):
			rest := input[i+2:]
			end := strings.Index(rest, "]]")
			if end < 0 {
				toks = append(toks, token{kind: tokPageRef, text: strings.TrimSpace(rest)})
				i = len(input)
				continue
			}
			toks = append(toks, token{kind: tokPageRef, text: strings.TrimSpace(rest[:end])})
			i += 2 + end + 2
		case c == '"':
			var sb strings.Builder
			j := i + 1
			for j < len(input) && input[j] != '"' {
				if input[j] == '\\' && j+1 < len(input) {
					j++
				}
				sb.WriteByte(input[j])
				j++
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		default:
			j := i
			for j < len(input) && !isDelim(input[j]) && !strings.HasPrefix(input[j:], "[[") {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: input[i:j]})
			i = j
		}
	}
	return append(toks, token{kind: tokEOF})
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '(', ')', '"':
		return true
	}
	return false
}
