package config

// Sources reported in lookup logs.
const (
	sourceSection = "section"
	sourceGlobal  = "global"
	sourceBuiltin = "builtin"
)

type getOptions struct {
	def       any
	valueType ValueType
	list      bool
}

// GetOption configures a Get lookup.
type GetOption func(*getOptions)

// Default sets the value returned when the key resolves to nothing.
func Default(v any) GetOption {
	return func(o *getOptions) {
		o.def = v
	}
}

// As sets the type each raw element is coerced to.
func As(t ValueType) GetOption {
	return func(o *getOptions) {
		o.valueType = t
	}
}

// AsList splits the raw value into a list before coercion. The result is
// a []any; an absent key yields an empty list unless Default is given.
func AsList() GetOption {
	return func(o *getOptions) {
		o.list = true
	}
}

// Get resolves key in section under the given active conditions.
//
// The key is looked up case-insensitively in the section, then in the
// global section, then in the built-in defaults table. Within the first map
// that declares the key, the first active condition with a value wins;
// otherwise the unconditional value is used. An unknown section, a missing
// key or an empty unconditional value yields the default. An empty value
// selected by an active condition yields "" or, with AsList, an empty list.
//
// Coercion failures are logged and resolved leniently: the element is
// dropped from a list, and a scalar falls back to the built-in default and
// then to the caller default. In strict mode they are returned as a
// coercion *Error instead. Get never fails in lenient mode.
func (c *Config) Get(conds Conditions, sectionName, key string, opts ...GetOption) (any, error) {
	o := getOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.list && o.def == nil {
		o.def = []any{}
	}

	sec, ok := c.sections[sectionName]
	if !ok {
		c.log.Warn().
			Str("section", sectionName).
			Str("key", key).
			Msg("Lookup in unknown config section")
		return o.def, nil
	}

	r, ok := c.resolveRaw(conds, sec, fold(key))
	switch {
	case !ok:
		return o.def, nil
	case r.raw == "" && !r.conditional:
		return o.def, nil
	case r.raw == "" && o.list:
		return []any{}, nil
	}

	return c.convert(sec.name, key, r.raw, r.source, o)
}

// resolved is the raw value a lookup selected and where it came from.
type resolved struct {
	raw         string
	source      string
	conditional bool
}

// resolveRaw selects the raw value for a lower-cased key.
func (c *Config) resolveRaw(conds Conditions, sec *section, lower string) (resolved, bool) {
	if vs, ok := sec.keys[lower]; ok {
		v, cond, ok := vs.selectValue(conds.tokens)
		return resolved{raw: v, source: sourceSection, conditional: cond}, ok
	}
	if global, ok := c.sections[GlobalSection]; ok {
		if vs, ok := global.keys[lower]; ok {
			v, cond, ok := vs.selectValue(conds.tokens)
			return resolved{raw: v, source: sourceGlobal, conditional: cond}, ok
		}
	}
	if v, ok := c.opts.Defaults[lower]; ok {
		return resolved{raw: v, source: sourceBuiltin}, true
	}
	return resolved{}, false
}

// rawList resolves a list-valued key without coercion.
func (c *Config) rawList(conds Conditions, sec *section, key string) []string {
	r, ok := c.resolveRaw(conds, sec, fold(key))
	if !ok {
		return nil
	}
	return ToList(r.raw)
}

// rawScalar resolves a scalar key without coercion.
func (c *Config) rawScalar(conds Conditions, sec *section, key string) string {
	r, _ := c.resolveRaw(conds, sec, fold(key))
	return r.raw
}

func (c *Config) convert(sectionName, key, raw, source string, o getOptions) (any, error) {
	items := []string{raw}
	if o.list {
		items = ToList(raw)
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := Coerce(item, o.valueType)
		if err == nil {
			out = append(out, v)
			continue
		}

		if c.opts.Strict {
			return nil, &Error{
				Class:   ErrorClassCoercion,
				Message: "value does not convert to " + o.valueType.String(),
				Section: sectionName,
				Key:     key,
				Err:     err,
			}
		}

		// Unrecognised booleans pass through unchanged.
		if o.valueType == TypeBool {
			out = append(out, v)
			continue
		}

		c.log.Warn().
			Err(err).
			Str("section", sectionName).
			Str("key", key).
			Str("source", source).
			Str("type", o.valueType.String()).
			Msg("Dropping config value that failed coercion")

		if !o.list {
			return c.scalarFallback(key, source, o), nil
		}
	}

	if o.list {
		return out, nil
	}
	return out[0], nil
}

func (c *Config) scalarFallback(key, source string, o getOptions) any {
	if source == sourceBuiltin {
		return o.def
	}
	raw, ok := c.opts.Defaults[fold(key)]
	if !ok {
		return o.def
	}
	if v, err := Coerce(raw, o.valueType); err == nil {
		return v
	}
	return o.def
}
