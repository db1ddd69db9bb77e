// Package config parses logbook configuration text and resolves settings
// and attribute schemas from it.
//
// # Overview
//
// A logbook configuration is INI-like text with one [global] section and
// one section per logbook. Any key may carry a {condition} prefix so that
// its value only applies while the condition is active:
//
//	[Travel]
//	Attributes = Where, Where2
//	Options Where = Canada{ca}, Europe{eu}
//	{eu} MOptions Where2 = Germany, France
//	{ca} MOptions Where2 = Ontario, Quebec
//	{eu&ca} Subject = Transatlantic
//
// Alternatives separated by commas apply when any of them is active; tokens
// joined with '&' apply only when all of them are. Keys and condition
// tokens are case-insensitive, section names are not.
//
// # Components
//
// Parse: turns text into an immutable *Config. Syntax problems abort with a
// classified *Error naming the line; lesser problems become warnings.
//
// Get: resolves a key through the section, the global section, the
// built-in defaults and finally the caller default, picking the first
// active condition that has a value.
//
// ResolveSchema: derives the ordered attributes of a logbook (required,
// extendable, option lists and their implied conditions) under a set of
// active conditions. Results are memoized per section and conditions.
//
// Scope: the caller-owned resolution context holding the active
// conditions for one operation. Conditions can be added directly or
// derived from the attribute values of an entry.
//
// EntryValidator: checks entry attribute values against a resolved schema
// by compiling it to a CUE definition.
//
// # Usage Example
//
//	cfg, err := config.Parse(text, config.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	err = cfg.WithScope(func(s *config.Scope) error {
//	    s.DeriveConditionsFrom("Travel", map[string][]string{"Where": {"Europe"}})
//	    where2 := s.List("Travel", "MOptions Where2") // [Germany France]
//	    perPage := s.Int("Travel", "Entries per page", 20)
//	    ...
//	})
//
// # Strict Mode
//
// Hand-edited configurations often contain stray entries, so by default
// unparseable keys are skipped and values that fail coercion fall back to
// defaults, with a warning logged. WithStrict(true) turns both into errors
// for validation and migration tooling.
//
// # Thread Safety
//
// A *Config is safe for concurrent use. A *Scope is not; each goroutine
// takes its own with NewScope or WithScope.
package config
