// Package subst expands $variables in logbook settings and applies the
// entry presets of a logbook.
//
// Settings are read through a config.Scope, so a preset or a time format
// declared under a condition takes effect once the condition is active.
package subst
