package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// sectionRe matches a [Section Name] header. Text after the closing
	// bracket, usually a comment, is ignored.
	sectionRe = regexp.MustCompile(`^\[([^\]]+)\]`)

	// optionRe splits a line at the first '=' or ':' delimiter.
	optionRe = regexp.MustCompile(`^(.*?)\s*[=:]\s*(.*)$`)

	// keyRe matches an optional {conditions} prefix followed by the bare key.
	keyRe = regexp.MustCompile(`^(\{([^{}]*)\})?\s*([^{}]*)$`)
)

// tripleQuote delimits multi-line values written by Export.
const tripleQuote = `"""`

// valueSet holds the raw values declared for one key of one section,
// indexed by condition key. The empty condition key is the unconditional
// value; a conjunction is stored as its tokens joined with '&'.
type valueSet struct {
	values       map[string]string
	conjunctions []string
}

func (vs *valueSet) set(cond, value string) {
	if _, exists := vs.values[cond]; !exists && strings.Contains(cond, "&") {
		vs.conjunctions = append(vs.conjunctions, cond)
	}
	vs.values[cond] = value
}

// selectValue picks the value for the active conditions and reports
// whether it came from a conditional declaration. Conditions are scanned in
// the order they became active and the first one with a value wins. A
// conjunction is eligible at the position where its last token became
// active, after the plain token at that position. With no match the
// unconditional value is used.
func (vs *valueSet) selectValue(active []string) (v string, conditional, ok bool) {
	if len(active) > 0 {
		var pos map[string]int
		if len(vs.conjunctions) > 0 {
			pos = make(map[string]int, len(active))
			for i, c := range active {
				pos[c] = i
			}
		}
		for i, c := range active {
			if strings.Contains(c, "&") {
				continue
			}
			if v, ok := vs.values[c]; ok {
				return v, true, true
			}
			for _, conj := range vs.conjunctions {
				if satisfiedAt(conj, pos) == i {
					return vs.values[conj], true, true
				}
			}
		}
	}
	v, ok = vs.values[""]
	return v, false, ok
}

// satisfiedAt returns the position at which every token of conj is active,
// or -1 if some token is not active.
func satisfiedAt(conj string, pos map[string]int) int {
	at := -1
	for _, tok := range strings.Split(conj, "&") {
		p, ok := pos[tok]
		if !ok {
			return -1
		}
		at = max(at, p)
	}
	return at
}

type section struct {
	name  string
	line  int
	keys  map[string]*valueSet
	order []string
	names map[string]string
}

func newSection(name string, line int) *section {
	return &section{
		name:  name,
		line:  line,
		keys:  make(map[string]*valueSet),
		names: make(map[string]string),
	}
}

func (s *section) valueSet(lower, declared string) *valueSet {
	vs, ok := s.keys[lower]
	if !ok {
		vs = &valueSet{values: make(map[string]string)}
		s.keys[lower] = vs
		s.order = append(s.order, lower)
		s.names[lower] = declared
	}
	return vs
}

// Config is a parsed logbook configuration. It is immutable once Parse
// returns and safe for concurrent use; active conditions are supplied by
// the caller on every lookup.
type Config struct {
	sections map[string]*section
	order    []string
	opts     Options
	log      zerolog.Logger
	warnings []Warning

	// tokens holds every condition token named in a key prefix.
	tokens map[string]bool

	// schemas memoizes ResolveSchema by section and ordered conditions.
	schemas sync.Map
}

// Parse parses configuration text. A [global] section is added when the
// text has none. Parse fails with a syntax *Error naming the offending line
// if the text cannot be split into sections and key = value lines, or if
// an unconditioned key is declared twice in one section.
func Parse(text string, opts ...Option) (*Config, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	c := &Config{
		sections: make(map[string]*section),
		tokens:   make(map[string]bool),
		opts:     o,
		log:      o.Logger.With().Str("component", "logbook-config").Logger(),
	}

	p := &parser{
		cfg:           c,
		unconditioned: make(map[string]int),
	}
	if err := p.run(text); err != nil {
		return nil, err
	}

	if _, ok := c.sections[GlobalSection]; !ok {
		c.sections[GlobalSection] = newSection(GlobalSection, 0)
		c.order = append(c.order, GlobalSection)
	}

	c.log.Debug().
		Int("sections", len(c.order)).
		Int("warnings", len(c.warnings)).
		Msg("Logbook configuration parsed")

	return c, nil
}

// Sections returns all section names in declaration order, including global.
func (c *Config) Sections() []string {
	return slices.Clone(c.order)
}

// Logbooks returns the names of all sections other than global.
func (c *Config) Logbooks() []string {
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if name != GlobalSection {
			names = append(names, name)
		}
	}
	return names
}

// HasSection reports whether the section is declared. Names are case-sensitive.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// Keys returns the keys declared in section, in their declared spelling and
// declaration order. Keys inherited from global are not included.
func (c *Config) Keys(sectionName string) []string {
	sec, ok := c.sections[sectionName]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(sec.order))
	for _, lower := range sec.order {
		keys = append(keys, sec.names[lower])
	}
	return keys
}

// Warnings returns the problems found while parsing.
func (c *Config) Warnings() []Warning {
	return slices.Clone(c.warnings)
}

// Strict reports whether the configuration was parsed in strict mode.
func (c *Config) Strict() bool {
	return c.opts.Strict
}

func (c *Config) warn(w Warning) {
	c.warnings = append(c.warnings, w)
	c.log.Warn().
		Int("line", w.Line).
		Str("section", w.Section).
		Str("key", w.Key).
		Msg(w.Message)
}

// declaration is a key = value line whose value may still grow through
// continuation lines.
type declaration struct {
	sec    *section
	line   int
	indent int
	key    string
	conds  []string
	lines  []string
	open   bool
}

type parser struct {
	cfg   *Config
	cur   *section
	decl  *declaration
	blank int

	// unconditioned maps section + lower key to the line of its
	// unconditioned declaration.
	unconditioned map[string]int
}

func (p *parser) run(text string) error {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if limit := p.cfg.opts.MaxLines; limit > 0 && len(lines) > limit {
		return newSyntaxError(limit+1, "", fmt.Sprintf("configuration exceeds %d lines", limit))
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t\r")

		if p.decl != nil && p.decl.open {
			if strings.HasSuffix(line, tripleQuote) {
				p.decl.lines = append(p.decl.lines, strings.TrimSuffix(line, tripleQuote))
				p.decl.open = false
				p.commit()
			} else {
				p.decl.lines = append(p.decl.lines, line)
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if p.decl != nil {
				p.blank++
			}
			continue
		}
		if trimmed[0] == '#' || trimmed[0] == ';' {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if p.decl != nil && indent > p.decl.indent {
			for ; p.blank > 0; p.blank-- {
				p.decl.lines = append(p.decl.lines, "")
			}
			p.decl.lines = append(p.decl.lines, trimmed)
			continue
		}
		p.commit()

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			if err := p.startSection(lineNo, raw, strings.TrimSpace(m[1])); err != nil {
				return err
			}
			continue
		}

		if p.cur == nil {
			return newSyntaxError(lineNo, raw, "key declared before any [section] header")
		}

		m := optionRe.FindStringSubmatch(trimmed)
		if m == nil {
			return newSyntaxError(lineNo, raw, "expected [section] header or key = value")
		}
		if err := p.declare(lineNo, indent, raw, m[1], m[2]); err != nil {
			return err
		}
	}

	if p.decl != nil && p.decl.open {
		return newSyntaxError(p.decl.line, "", "unterminated \"\"\" value")
	}
	p.commit()
	return nil
}

func (p *parser) startSection(lineNo int, raw, name string) error {
	if name == "" {
		return newSyntaxError(lineNo, raw, "empty section name")
	}
	if prev, ok := p.cfg.sections[name]; ok {
		e := newSyntaxError(lineNo, raw, fmt.Sprintf("section already declared on line %d", prev.line))
		e.Section = name
		return e
	}

	if strings.HasPrefix(fold(name), "group ") {
		p.cfg.warn(Warning{
			Line:    lineNo,
			Section: name,
			Message: "[Group xxx] sections are not supported and are treated as logbooks",
		})
	}

	p.cur = newSection(name, lineNo)
	p.cfg.sections[name] = p.cur
	p.cfg.order = append(p.cfg.order, name)
	return nil
}

func (p *parser) declare(lineNo, indent int, raw, keyPart, value string) error {
	m := keyRe.FindStringSubmatch(keyPart)
	if m == nil || strings.TrimSpace(m[3]) == "" {
		if p.cfg.opts.Strict {
			e := newSyntaxError(lineNo, raw, "cannot parse key")
			e.Section = p.cur.name
			return e
		}
		p.cfg.warn(Warning{
			Line:    lineNo,
			Section: p.cur.name,
			Key:     keyPart,
			Message: fmt.Sprintf("unable to parse config key %q, line ignored", keyPart),
		})
		return nil
	}

	key := strings.TrimSpace(m[3])
	var conds []string
	if m[1] != "" {
		conds = parseConditions(m[2])
	}

	if len(conds) == 0 {
		dupKey := p.cur.name + "\x00" + fold(key)
		if prev, ok := p.unconditioned[dupKey]; ok {
			e := newSyntaxError(lineNo, raw, fmt.Sprintf("key already declared on line %d", prev))
			e.Section = p.cur.name
			e.Key = key
			return e
		}
		p.unconditioned[dupKey] = lineNo
	}

	d := &declaration{
		sec:    p.cur,
		line:   lineNo,
		indent: indent,
		key:    key,
		conds:  conds,
	}
	if rest, ok := strings.CutPrefix(value, tripleQuote); ok {
		if len(rest) >= len(tripleQuote) && strings.HasSuffix(rest, tripleQuote) {
			value = strings.TrimSuffix(rest, tripleQuote)
		} else {
			value = rest
			d.open = true
		}
	}
	d.lines = []string{value}
	p.decl = d
	return nil
}

func (p *parser) commit() {
	d := p.decl
	p.decl = nil
	p.blank = 0
	if d == nil {
		return
	}

	value := strings.Join(d.lines, "\n")
	vs := d.sec.valueSet(fold(d.key), d.key)
	if len(d.conds) == 0 {
		vs.set("", value)
		return
	}
	for _, cond := range d.conds {
		vs.set(cond, value)
		for _, tok := range strings.Split(cond, "&") {
			p.cfg.tokens[tok] = true
		}
	}
}

// parseConditions splits a {a, b&c} prefix into lower-cased condition keys.
// Each comma separated alternative is one key; '&' joins the tokens of a
// conjunction.
func parseConditions(raw string) []string {
	var conds []string
	for _, alt := range strings.Split(raw, ",") {
		alt = fold(strings.TrimSpace(alt))
		if alt == "" {
			continue
		}
		if strings.Contains(alt, "&") {
			var parts []string
			for _, tok := range strings.Split(alt, "&") {
				if tok = strings.TrimSpace(tok); tok != "" {
					parts = append(parts, tok)
				}
			}
			alt = strings.Join(parts, "&")
			if alt == "" {
				continue
			}
		}
		if !slices.Contains(conds, alt) {
			conds = append(conds, alt)
		}
	}
	return conds
}
