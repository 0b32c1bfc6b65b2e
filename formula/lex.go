package formula

import (
	"strconv"
	"strings"

	"github.com/ansel1/merry"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func (tk token) describe() string {
	switch tk.kind {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number " + strconv.FormatFloat(tk.num, 'g', -1, 64)
	case tokString:
		return "string " + strconv.Quote(tk.text)
	}
	return strconv.Quote(tk.text)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case isDigit(c):
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				k := j + 1
				if k < len(src) && (src[k] == '+' || src[k] == '-') {
					k++
				}
				for k < len(src) && isDigit(src[k]) {
					k++
				}
				j = k
			}
			n, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, merry.Errorf("bad number %q at position %d", src[i:j], i)
			}
			toks = append(toks, token{kind: tokNumber, num: n, pos: i})
			i = j

		case c == '\'' || c == '"':
			var sb strings.Builder
			j := i + 1
			for {
				if j >= len(src) {
					return nil, merry.Errorf("unterminated string at position %d", i)
				}
				if src[j] == '\\' && j+1 < len(src) {
					sb.WriteByte(src[j+1])
					j += 2
					continue
				}
				if src[j] == c {
					break
				}
				sb.WriteByte(src[j])
				j++
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: i})
			i = j + 1

		case isAlpha(c):
			j := i
			for j < len(src) && isAlnum(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j

		default:
			if i+1 < len(src) {
				switch two := src[i : i+2]; two {
				case "&&", "||", "==", "!=", "<=", ">=":
					toks = append(toks, token{kind: tokOp, text: two, pos: i})
					i += 2
					continue
				}
			}
			switch c {
			case '+', '-', '*', '/', '%', '(', ')', '[', ']', '.', '?', ':', '!', '<', '>', ',':
				toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
				i++
			default:
				return nil, merry.Errorf("unexpected character %q at position %d", string(c), i)
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}
