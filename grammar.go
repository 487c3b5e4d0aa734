package dendrite

import (
	"fmt"
	"strconv"
	"strings"
)

// gbnf primitive rules shared by every generated grammar. Matches the JSON
// subset llama.cpp grammars understand.
const gbnfPrimitives = `boolean ::= "true" | "false"
number  ::= integer frac? exp?
integer ::= "-"? ("0" | [1-9] [0-9]*)
frac    ::= "." [0-9]+
exp     ::= ("e" | "E") ("+" | "-")? [0-9]+
ws ::= [ \t\n\r]*
`

// Grammar emits a GBNF grammar constraining model output to a single JSON
// object whose keys come from the schema and whose values match the declared
// types. Keys are sorted so the grammar is stable across runs. Providers that
// implement GrammarCaller feed this to llama.cpp for constrained decoding.
func (s *Schema) Grammar() string {
	var numberKeys, boolKeys []string
	var enumSpecs []ParamSpec
	for _, name := range s.SortedNames() {
		spec, _ := s.Spec(name)
		switch spec.Type {
		case ParamFloat, ParamInt:
			numberKeys = append(numberKeys, name)
		case ParamBool:
			boolKeys = append(boolKeys, name)
		case ParamEnum:
			enumSpecs = append(enumSpecs, spec)
		}
	}

	var pairRules []string
	var defs []string

	if len(numberKeys) > 0 {
		pairRules = append(pairRules, "number_pair")
		defs = append(defs,
			`number_pair ::= number_key ws ":" ws number`,
			"number_key ::= "+quotedAlts(numberKeys))
	}
	if len(boolKeys) > 0 {
		pairRules = append(pairRules, "bool_pair")
		defs = append(defs,
			`bool_pair ::= bool_key ws ":" ws boolean`,
			"bool_key ::= "+quotedAlts(boolKeys))
	}
	for i, spec := range enumSpecs {
		rule := fmt.Sprintf("enum_pair_%d", i)
		pairRules = append(pairRules, rule)
		defs = append(defs, fmt.Sprintf(`%s ::= %s ws ":" ws (%s)`,
			rule, grammarQuote(spec.Name), quotedAlts(spec.Enum)))
	}

	if len(pairRules) == 0 {
		return strings.Join([]string{
			`root ::= ws "{" ws "}" ws`,
			"",
			gbnfPrimitives,
		}, "\n")
	}

	lines := []string{
		`root ::= ws "{" ws members? ws "}" ws`,
		`members ::= pair (ws "," ws pair)*`,
		"pair ::= " + strings.Join(pairRules, " | "),
	}
	lines = append(lines, defs...)
	lines = append(lines, "", gbnfPrimitives)
	return strings.Join(lines, "\n")
}

// grammarQuote renders a JSON string literal as a GBNF terminal.
func grammarQuote(s string) string {
	return strconv.Quote(strconv.Quote(s))
}

func quotedAlts(names []string) string {
	alts := make([]string, len(names))
	for i, n := range names {
		alts[i] = grammarQuote(n)
	}
	return strings.Join(alts, " | ")
}
