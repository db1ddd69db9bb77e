package config

import (
	"fmt"
	"slices"
	"strings"
)

// Conditions is an ordered set of distinct, lower-cased condition tokens.
// The order is the order in which the tokens became active and decides
// which conditional value wins. Conditions is a value type; Add returns a
// new set and never modifies the receiver.
type Conditions struct {
	tokens []string
}

// NewConditions returns the conditions activated by tokens in order.
func NewConditions(tokens ...string) Conditions {
	var c Conditions
	for _, t := range tokens {
		c = c.Add(t)
	}
	return c
}

// Add returns c with token appended. Tokens are trimmed and lower-cased;
// empty tokens, tokens already present and tokens containing '&' or ','
// are ignored. A conjunction is activated by adding each of its tokens.
func (c Conditions) Add(token string) Conditions {
	t := fold(strings.TrimSpace(token))
	if t == "" || strings.ContainsAny(t, "&,") || slices.Contains(c.tokens, t) {
		return c
	}
	return Conditions{tokens: append(slices.Clip(c.tokens), t)}
}

// Has reports whether token is active.
func (c Conditions) Has(token string) bool {
	return slices.Contains(c.tokens, fold(strings.TrimSpace(token)))
}

// Tokens returns the active tokens in activation order.
func (c Conditions) Tokens() []string {
	return slices.Clone(c.tokens)
}

// Len returns the number of active tokens.
func (c Conditions) Len() int {
	return len(c.tokens)
}

// Key returns a string identifying the ordered token list.
func (c Conditions) Key() string {
	return strings.Join(c.tokens, "\x00")
}

func (c Conditions) String() string {
	return strings.Join(c.tokens, ",")
}

// Scope is a resolution context: a Config paired with the conditions active
// for one logical operation, such as rendering one entry. A Scope belongs
// to its caller and must not be shared between goroutines; concurrent
// operations each take their own Scope from the same Config.
type Scope struct {
	cfg   *Config
	conds Conditions
}

// NewScope returns a scope with no active conditions.
func (c *Config) NewScope() *Scope {
	return &Scope{cfg: c}
}

// WithScope runs fn in a fresh scope.
func (c *Config) WithScope(fn func(*Scope) error) error {
	return c.NewScope().WithScope(fn)
}

// Config returns the configuration the scope resolves against.
func (s *Scope) Config() *Config {
	return s.cfg
}

// Conditions returns the active conditions.
func (s *Scope) Conditions() Conditions {
	return s.conds
}

// AddCondition activates token. Adding an active token has no effect.
func (s *Scope) AddCondition(token string) {
	s.conds = s.conds.Add(token)
}

// ClearConditions deactivates all conditions.
func (s *Scope) ClearConditions() {
	s.conds = Conditions{}
}

// WithScope clears the conditions, runs fn, and clears them again however
// fn returns, including by panic.
func (s *Scope) WithScope(fn func(*Scope) error) error {
	s.ClearConditions()
	defer s.ClearConditions()
	return fn(s)
}

// DeriveConditionsFrom activates the conditions implied by attribute values
// already chosen for an entry of section. values maps attribute names to the
// selected option texts. Newly activated conditions can change the schema
// and imply further conditions, so derivation repeats until nothing new is
// added. It returns the number of conditions added.
func (s *Scope) DeriveConditionsFrom(section string, values map[string][]string) int {
	added := 0
	for {
		schema, err := s.AttributesFor(section)
		if err != nil {
			s.cfg.log.Warn().
				Err(err).
				Str("section", section).
				Msg("Cannot derive conditions")
			return added
		}

		before := s.conds.Len()
		for _, a := range schema.attrs {
			for _, v := range values[a.Name] {
				if cond, ok := a.ValConditions[v]; ok {
					s.conds = s.conds.Add(cond)
				}
			}
		}

		n := s.conds.Len() - before
		if n == 0 {
			return added
		}
		added += n
	}
}

// AttributesFor returns the schema of section under the active conditions.
func (s *Scope) AttributesFor(section string) (*Schema, error) {
	return s.cfg.ResolveSchema(section, s.conds)
}

// Get resolves key under the active conditions. See Config.Get.
func (s *Scope) Get(section, key string, opts ...GetOption) (any, error) {
	return s.cfg.Get(s.conds, section, key, opts...)
}

// String returns the string value of key, or def.
func (s *Scope) String(section, key, def string) string {
	v, err := s.Get(section, key, Default(def))
	if err != nil {
		return def
	}
	str, ok := v.(string)
	if !ok {
		return def
	}
	return str
}

// List returns the list value of key. An absent key yields nil.
func (s *Scope) List(section, key string) []string {
	v, err := s.Get(section, key, AsList())
	if err != nil {
		return nil
	}
	items, _ := v.([]any)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// Bool returns the boolean value of key. Text that is not a recognised
// boolean yields def.
func (s *Scope) Bool(section, key string, def bool) bool {
	v, err := s.Get(section, key, As(TypeBool), Default(def))
	if err != nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		s.cfg.log.Warn().
			Str("section", section).
			Str("key", key).
			Interface("value", v).
			Msg("Config value is not a boolean")
		return def
	}
	return b
}

// Int returns the integer value of key, or def.
func (s *Scope) Int(section, key string, def int) int {
	v, err := s.Get(section, key, As(TypeInt), Default(def))
	if err != nil {
		return def
	}
	n, ok := v.(int)
	if !ok {
		return def
	}
	return n
}

// Float returns the numeric value of key, or def.
func (s *Scope) Float(section, key string, def float64) float64 {
	v, err := s.Get(section, key, As(TypeFloat), Default(def))
	if err != nil {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return f
}

// IOptions returns the names of the attributes of section rendered as
// icon radio groups.
func (s *Scope) IOptions(section string, lowercase bool) []string {
	return s.attributeNames(section, lowercase, func(a Attribute) bool {
		return a.OptionsType == OptionsIcon
	})
}

// Required returns the names of the required attributes of section.
func (s *Scope) Required(section string, lowercase bool) []string {
	return s.attributeNames(section, lowercase, func(a Attribute) bool {
		return a.Required
	})
}

func (s *Scope) attributeNames(section string, lowercase bool, keep func(Attribute) bool) []string {
	schema, err := s.AttributesFor(section)
	if err != nil {
		return nil
	}
	var names []string
	for _, a := range schema.attrs {
		if !keep(a) {
			continue
		}
		name := a.Name
		if lowercase {
			name = fold(name)
		}
		names = append(names, name)
	}
	return names
}
