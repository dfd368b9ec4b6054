// Package lang implements formula, a small expression language for hosts
// that evaluate formulas against constants and functions of their own.
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	Expression  → Or [ '?' Expression ':' Expression ]
//	Or          → And { '||' And }
//	And         → Equality { '&&' Equality }
//	Equality    → Relational { ( '==' | '!=' ) Relational }
//	Relational  → Additive { ( '>' | '>=' | '<' | '<=' ) Additive }
//	Additive    → Term { ( '+' | '-' ) Term }
//	Term        → Unary { ( '*' | '/' ) Unary }
//	Unary       → ( '-' | '!' ) Unary | Postfix
//	Postfix     → Primary { '.' Identifier | '[' Expression ']' | '(' Args ')' }
//	Primary     → Number | String | 'true' | 'false' | 'null' | Identifier
//	            | '(' Expression ')' | '[' Args ']'
//
// Strings are single- or double-quoted; a backslash escapes only the quote
// character. A dotted identifier such as os.platform names a constant path.
//
// # Values
//
// Evaluation yields a [Value]: null, boolean, number, string, array, object,
// buffer, or deferred. Deferred values are pending computations, such as the
// file reads behind document and include. Operators and functions resolve
// them only where a concrete kind is required, so independent reads proceed
// concurrently and untaken branches of "||", "&&" and "?:" are never
// evaluated.
//
// # Example
//
//	v, err := lang.Eval(ctx, "toUpperCase(os.platform) + '-' + name",
//		lang.WithConstant("name", "dev"))
//
// # Included documents
//
// include reads a YAML or JSON document and evaluates the expressions
// embedded in its string leaves between "{{" and "}}". A leaf consisting of a
// single marker takes the value of its expression; other markers are
// replaced by text.
//
//	# conf.yaml
//	name: "{{ name }}"
//	url: "https://{{ host }}/{{ toLowerCase(name) }}"
//
// # Errors
//
// Every error is an [*Error] positioned at the construct that caused it and
// formatted as "line,column: message". Use [errors.Is] with the sentinel
// values such as [ErrUnknownFunction] to classify them.
package lang
