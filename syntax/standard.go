package syntax

import "sync"

// StandardRules are lexical rules which may be referenced with backticks
// without defining them, e.g. `identifier`. Rules defined by a syntax take
// precedence over standard rules of the same name.
var StandardRules = [][]string{
	{"newline", `'\r'`, `'\n'`},
	{"newline", `'\n'`},
	{"newline", `'\r'`},
	{"newlines", "newline"},
	{"newlines", "newlines", "newline"},
	{"space", `' '`},
	{"space", `'\t'`},
	{"space", `'\f'`},
	{"spaces", "space"},
	{"spaces", "spaces", "space"},
	{"whitespace", "space"},
	{"whitespace", "newline"},
	{"whitespaces", "whitespace"},
	{"whitespaces", "whitespaces", "whitespace"},
	{"letter", `'a'`, "..", `'z'`},
	{"letter", `'A'`, "..", `'Z'`},
	{"letter", `'_'`},
	{"digit", `'0'`, "..", `'9'`},
	{"digits", "digit"},
	{"digits", "digits", "digit"},
	{"identifier", "letter"},
	{"identifier", "identifier", "letter"},
	{"identifier", "identifier", "digit"},
	{"integer", "digits"},
	{"float", "digits", `'.'`, "digits"},
	{"float", `'.'`, "digits"},
	{"number", "integer"},
	{"number", "float"},
	{"anychar", `'\x00'`, "..", `'\U0010FFFF'`},
	{"stringdef", `'"'`, `'"'`},
	{"stringdef", `'"'`, "stringdef_chars", `'"'`},
	{"stringdef_chars", "stringdef_char"},
	{"stringdef_chars", "stringdef_chars", "stringdef_char"},
	{"stringdef_char", "anychar", "-", `'"'`, "-", `'\\'`, "-", `'\n'`},
	{"stringdef_char", `'\\'`, "anychar"},
	{"chardef", `'\''`, "chardef_char", `'\''`},
	{"chardef_char", "anychar", "-", `'\''`, "-", `'\\'`, "-", `'\n'`},
	{"chardef_char", `'\\'`, "anychar"},
	{"cstylecomment", `"/*"`, "cstylecomment_end"},
	{"cstylecomment", `"/*"`, "cstylecomment_body", "cstylecomment_end"},
	{"cstylecomment_body", "cstylecomment_part"},
	{"cstylecomment_body", "cstylecomment_body", "cstylecomment_part"},
	{"cstylecomment_part", "anychar", "-", `'*'`},
	{"cstylecomment_part", "cstylecomment_stars", "anychar", "-", `'*'`, "-", `'/'`},
	{"cstylecomment_stars", `'*'`},
	{"cstylecomment_stars", "cstylecomment_stars", `'*'`},
	{"cstylecomment_end", "cstylecomment_stars", `'/'`},
	{"cppstylecomment", `"//"`},
	{"cppstylecomment", `"//"`, "comment_chars"},
	{"shellstylecomment", `'#'`},
	{"shellstylecomment", `'#'`, "comment_chars"},
	{"comment_chars", "comment_char"},
	{"comment_chars", "comment_chars", "comment_char"},
	{"comment_char", "anychar", "-", `'\n'`, "-", `'\r'`},
	{"comment", "cstylecomment"},
	{"comment", "cppstylecomment"},
}

var standard struct {
	once  sync.Once
	rules map[string][]parsedRule
	err   error
}

// standardRules returns the parsed standard rules, grouped by LHS.
func standardRules() (map[string][]parsedRule, error) {
	standard.once.Do(func() {
		standard.rules = make(map[string][]parsedRule)
		for _, arr := range StandardRules {
			pr, err := parseRule(Rule{LHS: arr[0], RHS: arr[1:]})
			if err != nil {
				standard.err = err
				return
			}
			standard.rules[pr.lhs] = append(standard.rules[pr.lhs], pr)
		}
	})
	return standard.rules, standard.err
}
