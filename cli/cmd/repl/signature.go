package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/formula/lang"
)

//nolint:gochecknoglobals
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list contains the cursor.
type functionCall struct {
	name     string
	argIndex int  // index of the argument under the cursor, receiver first
	method   bool // called in method form; the receiver is argument 0
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor and the
// index of the argument being typed. Parentheses and brackets inside string
// literals are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Track open delimiters left to right; the innermost unclosed "(" wins.
	var (
		opens []int
		quote rune
	)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote && (i == 0 || input[i-1] != '\\') {
				quote = 0
			}

		case r == '\'' || r == '"':
			quote = r

		case r == '(' || r == '[':
			opens = append(opens, i)

		case (r == ')' || r == ']') && len(opens) > 0:
			opens = opens[:len(opens)-1]
		}
	}

	open := -1

	for i := len(opens) - 1; i >= 0; i-- {
		if input[opens[i]] == '(' {
			open = opens[i]

			break
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	call := functionCall{name: input[start:open], inCall: true}
	if call.name == "" {
		return functionCall{}
	}

	if start > 0 && input[start-1] == '.' {
		call.method = true
		call.argIndex = 1
	}

	depth := 0
	quote = 0

	for i, r := range input[open+1 : cursor] {
		switch {
		case quote != 0:
			if r == quote && input[open+i] != '\\' {
				quote = 0
			}

		case r == '\'' || r == '"':
			quote = r

		case r == '(' || r == '[':
			depth++

		case r == ')' || r == ']':
			depth--

		case r == ',' && depth == 0:
			call.argIndex++
		}
	}

	return call
}

// signature returns the display form of fn called as name, and its
// parameters. Optional parameters are marked with "?" and a variadic final
// parameter is prefixed with "...".
func signature(name string, fn lang.Function) (string, []string) {
	params := make([]string, len(fn.Arguments))

	for i, k := range fn.Arguments {
		p := k.String()

		if i >= fn.Required() {
			p += "?"
		}

		if fn.Variadic && i == len(fn.Arguments)-1 {
			p = "..." + p
		}

		params[i] = p
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// renderSignatureHint renders the signature of name with the parameter at
// argIndex highlighted. A variadic parameter stays highlighted for every
// argument past it.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
