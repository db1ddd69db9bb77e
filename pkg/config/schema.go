package config

import (
	"fmt"
	"regexp"
	"strings"
)

// optionCondRe matches an option with a trailing {condition}.
var optionCondRe = regexp.MustCompile(`^(.*?)\s*\{([^{}]*)\}\s*$`)

// ResolveSchema returns the attribute schema of section under conds.
// Schemas are built on first use and shared afterwards; the result must be
// treated as read-only. Only condition lists made of tokens the
// configuration declares are memoized. An undeclared section yields
// ErrUnknownSection.
func (c *Config) ResolveSchema(sectionName string, conds Conditions) (*Schema, error) {
	sec, ok := c.sections[sectionName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionName)
	}

	if !c.declaresAll(conds) {
		s := c.buildSchema(sec, conds)
		c.logSchemaWarnings(s)
		return s, nil
	}

	key := sectionName + "\x01" + conds.Key()
	if v, ok := c.schemas.Load(key); ok {
		return v.(*Schema), nil
	}

	s := c.buildSchema(sec, conds)
	actual, loaded := c.schemas.LoadOrStore(key, s)
	if !loaded {
		c.logSchemaWarnings(s)
	}
	return actual.(*Schema), nil
}

// declaresAll reports whether every token of conds appears in a key prefix.
func (c *Config) declaresAll(conds Conditions) bool {
	for _, t := range conds.tokens {
		if !c.tokens[t] {
			return false
		}
	}
	return true
}

func (c *Config) logSchemaWarnings(s *Schema) {
	for _, w := range s.warnings {
		c.log.Warn().
			Str("section", w.Section).
			Str("key", w.Key).
			Str("conditions", s.conditions.String()).
			Msg(w.Message)
	}
}

func (c *Config) buildSchema(sec *section, conds Conditions) *Schema {
	s := &Schema{
		section:    sec.name,
		conditions: conds,
		index:      make(map[string]int),
	}

	names := c.rawList(conds, sec, KeyAttributes)
	if len(names) == 0 {
		names = DefaultAttributeNames
	}
	for _, name := range names {
		if _, dup := s.index[name]; dup {
			s.warn(KeyAttributes, fmt.Sprintf("attribute %q listed twice", name))
			continue
		}
		s.index[name] = len(s.attrs)
		s.attrs = append(s.attrs, Attribute{Name: name, OptionsType: OptionsText})
	}

	c.markAttributes(s, conds, sec, KeyRequiredAttributes, func(a *Attribute) { a.Required = true })
	c.markAttributes(s, conds, sec, KeyExtendableOptions, func(a *Attribute) { a.Extendable = true })

	for i := range s.attrs {
		a := &s.attrs[i]

		typeKey := KeyTypePrefix + " " + a.Name
		if vt := fold(strings.TrimSpace(c.rawScalar(conds, sec, typeKey))); vt != "" {
			a.ValType = vt
			if !knownValTypes[vt] {
				s.warn(typeKey, fmt.Sprintf("unknown attribute type %q", vt))
			}
		}

		var declared []string
		for _, prefix := range optionPrefixes {
			opts := c.rawList(conds, sec, string(prefix)+" "+a.Name)
			if len(opts) == 0 {
				continue
			}
			declared = append(declared, string(prefix))
			a.OptionsType = prefix
			a.Options = opts
		}
		if len(declared) > 1 {
			s.warn(string(a.OptionsType)+" "+a.Name, fmt.Sprintf(
				"options declared as %s for attribute %q, using %s",
				strings.Join(declared, " and "), a.Name, a.OptionsType))
		}

		splitOptionConditions(a)
	}

	return s
}

// markAttributes applies set to every attribute named in the list key.
// Names not in the schema are reported and ignored.
func (c *Config) markAttributes(s *Schema, conds Conditions, sec *section, key string, set func(*Attribute)) {
	for _, name := range c.rawList(conds, sec, key) {
		i, ok := s.index[name]
		if !ok {
			s.warn(key, fmt.Sprintf("%q is not a declared attribute", name))
			continue
		}
		set(&s.attrs[i])
	}
}

// splitOptionConditions strips {condition} suffixes from the options of a
// and records them in ValConditions. Duplicate options are dropped.
func splitOptionConditions(a *Attribute) {
	if len(a.Options) == 0 {
		return
	}
	opts := make([]string, 0, len(a.Options))
	seen := make(map[string]bool, len(a.Options))
	for _, o := range a.Options {
		text := o
		if m := optionCondRe.FindStringSubmatch(o); m != nil {
			text = strings.TrimSpace(m[1])
			if cond := fold(strings.TrimSpace(m[2])); cond != "" && text != "" {
				if a.ValConditions == nil {
					a.ValConditions = make(map[string]string)
				}
				a.ValConditions[text] = cond
			}
		}
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		opts = append(opts, text)
	}
	a.Options = opts
}

func (s *Schema) warn(key, message string) {
	s.warnings = append(s.warnings, Warning{
		Section: s.section,
		Key:     key,
		Message: message,
	})
}
