package flow

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern matches callback data or message text and extracts named
// parameters. It is built either from a template string with :name
// placeholders or from a raw regular expression.
type Pattern struct {
	re     *regexp.Regexp
	source string
	// names holds placeholder names in the order they appeared in the
	// template. Empty for raw regexps, which only yield params through
	// native named capture groups.
	names []string
}

// Compile builds a Pattern from a template string. Each :identifier
// placeholder becomes a capture group matching one or more characters
// excluding the literal that follows it, so templates like "user:::id"
// (literal "user::" then the id placeholder) resolve unambiguously.
func Compile(template string) (*Pattern, error) {
	var (
		expr  strings.Builder
		names []string
	)

	expr.WriteString("^")

	runes := []rune(template)
	for i := 0; i < len(runes); {
		if runes[i] == ':' && i+1 < len(runes) && isIdentStart(runes[i+1]) {
			j := i + 1
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			names = append(names, string(runes[i+1:j]))

			if j < len(runes) {
				expr.WriteString("([^" + escapeClass(runes[j]) + "]+)")
			} else {
				expr.WriteString("(.+)")
			}

			i = j
			continue
		}

		expr.WriteString(regexp.QuoteMeta(string(runes[i])))
		i++
	}

	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", template, err)
	}

	return &Pattern{re: re, source: template, names: names}, nil
}

// MustCompile is Compile that panics on error, for static declarations.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Regexp wraps a raw regular expression as a Pattern. Params are populated
// only from named capture groups; positional groups are not param-aware.
func Regexp(re *regexp.Regexp) *Pattern {
	return &Pattern{re: re, source: re.String()}
}

// String returns the original template or regexp source.
func (p *Pattern) String() string {
	return p.source
}

// Match tests input against the pattern. On success the returned map holds
// the captured parameters; on failure it is nil.
func (p *Pattern) Match(input string) (map[string]string, bool) {
	groups := p.re.FindStringSubmatch(input)
	if groups == nil {
		return nil, false
	}

	params := make(map[string]string)

	if named := p.re.SubexpNames(); hasNamed(named) {
		for i, name := range named {
			if i == 0 || name == "" {
				continue
			}
			params[name] = groups[i]
		}
		return params, true
	}

	// Positional captures pair with placeholder names in template order.
	for i, name := range p.names {
		if i+1 < len(groups) {
			params[name] = groups[i+1]
		}
	}

	return params, true
}

func hasNamed(names []string) bool {
	for i, name := range names {
		if i > 0 && name != "" {
			return true
		}
	}
	return false
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// escapeClass escapes a rune for use inside a regexp character class.
func escapeClass(r rune) string {
	switch r {
	case '\\', ']', '^', '-':
		return "\\" + string(r)
	}
	return string(r)
}
