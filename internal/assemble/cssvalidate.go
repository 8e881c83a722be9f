package assemble

import (
	"errors"
	"fmt"
	"io"

	tdparse "github.com/tdewolff/parse/v2"
	parsecss "github.com/tdewolff/parse/v2/css"
)

// validateStyle rejects style text the CSS minifier would otherwise repair or
// pass through: unbalanced braces, brackets or parentheses, bad strings and
// urls, and anything the CSS grammar parser reports as an error.
func validateStyle(src string) error {
	if err := checkBalance(src); err != nil {
		return err
	}
	p := parsecss.NewParser(tdparse.NewInputString(src), false)
	for {
		gt, _, data := p.Next()
		if gt != parsecss.ErrorGrammar {
			continue
		}
		switch err := p.Err(); {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("invalid css: %w", err)
		default:
			return fmt.Errorf("invalid css near %q", data)
		}
	}
}

var closers = map[parsecss.TokenType]parsecss.TokenType{
	parsecss.RightBraceToken:       parsecss.LeftBraceToken,
	parsecss.RightBracketToken:     parsecss.LeftBracketToken,
	parsecss.RightParenthesisToken: parsecss.LeftParenthesisToken,
}

func checkBalance(src string) error {
	l := parsecss.NewLexer(tdparse.NewInputString(src))
	var open []parsecss.TokenType
	offset := 0
	for {
		tt, data := l.Next()
		switch tt {
		case parsecss.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("invalid css: %w", err)
			}
			if len(open) > 0 {
				return fmt.Errorf("invalid css: %d unclosed block(s) at end of input", len(open))
			}
			return nil
		case parsecss.BadStringToken, parsecss.BadURLToken:
			return fmt.Errorf("invalid css at offset %d: malformed %s", offset, tt)
		case parsecss.LeftBraceToken, parsecss.LeftBracketToken, parsecss.LeftParenthesisToken:
			open = append(open, tt)
		case parsecss.FunctionToken:
			open = append(open, parsecss.LeftParenthesisToken)
		case parsecss.RightBraceToken, parsecss.RightBracketToken, parsecss.RightParenthesisToken:
			if len(open) == 0 || open[len(open)-1] != closers[tt] {
				return fmt.Errorf("invalid css at offset %d: unexpected %q", offset, data)
			}
			open = open[:len(open)-1]
		}
		offset += len(data)
	}
}
