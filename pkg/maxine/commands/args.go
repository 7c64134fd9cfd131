package commands

import (
	"strings"
	"unicode"
)

// ParseLine resolves a prefixed chat line ("prompt set be nice") into an
// Invocation name and raw options. Subcommands are matched before their
// parent. When nothing matches, the first word is returned as the name so
// that Dispatch reports it as not implemented.
func (d *Dispatcher) ParseLine(line string) (string, map[string]any) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", nil
	}

	if len(words) >= 2 {
		name := normalizeName(words[0] + " " + words[1])
		if e, ok := d.commands[name]; ok {
			return name, ParseArgs(e.spec, restAfterWords(line, 2))
		}
	}
	name := normalizeName(words[0])
	if e, ok := d.commands[name]; ok {
		return name, ParseArgs(e.spec, restAfterWords(line, 1))
	}
	return name, nil
}

// ParseArgs splits free text into raw option values for spec.
//
// Tokens of the form name:value or name=value set the named option. The
// remaining tokens fill the other options in declaration order. A Greedy
// option takes every remaining token; otherwise the last option absorbs any
// excess. Double quotes group words into one token.
func ParseArgs(spec Spec, text string) map[string]any {
	raw := make(map[string]any)
	var positional []string
	for _, tok := range tokenize(text) {
		if name, value, ok := namedArg(spec, tok); ok {
			raw[name] = value
			continue
		}
		positional = append(positional, tok)
	}

	var pending []OptionSpec
	for _, o := range spec.Options {
		if _, set := raw[o.Name]; !set {
			pending = append(pending, o)
		}
	}

	for i, o := range pending {
		if len(positional) == 0 {
			break
		}
		if o.Greedy || i == len(pending)-1 {
			raw[o.Name] = strings.Join(positional, " ")
			positional = nil
			break
		}
		raw[o.Name] = positional[0]
		positional = positional[1:]
	}
	return raw
}

// namedArg recognises name:value and name=value for a declared option.
func namedArg(spec Spec, tok string) (string, string, bool) {
	i := strings.IndexAny(tok, ":=")
	if i <= 0 {
		return "", "", false
	}
	name := tok[:i]
	if _, ok := spec.Option(name); !ok {
		return "", "", false
	}
	return name, tok[i+1:], true
}

// tokenize splits on whitespace, honouring double-quoted segments.
func tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()
	return tokens
}

// restAfterWords drops the first n whitespace-separated words of s.
func restAfterWords(s string, n int) string {
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	for ; n > 0; n-- {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	return rest
}
