package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGet_ConditionPrecedence(t *testing.T) {
	cfg := mustParse(t, travelConfig)

	tests := []struct {
		name  string
		conds []string
		want  []any
	}{
		{"eu", []string{"eu"}, []any{"Germany", "France", "UK", "Italy", "Slovenia", "Czech", "Hungary"}},
		{"us", []string{"us"}, []any{"FL", "NY", "Other"}},
		{"case-insensitive", []string{"US"}, []any{"FL", "NY", "Other"}},
		{"first active wins", []string{"oth", "eu"}, []any{"Somewhere"}},
		{"unmatched condition", []string{"xx", "ca"}, []any{"AB", "BC", "MB", "NB", "NL", "NS", "ON", "PE", "QC", "SK"}},
		{"no conditions", nil, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.Get(NewConditions(tt.conds...), "Travel", "MOptions Where2", AsList())
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet_Conjunctions(t *testing.T) {
	cfg := mustParse(t, `[Demo]
{a&b} Subject = both
{b} Subject = only b
Subject = none
{a & b} Body = both
{c} Body = c
`)

	tests := []struct {
		key   string
		conds []string
		want  any
	}{
		{"Subject", []string{"a"}, "none"},
		{"Subject", []string{"a", "b"}, "only b"},
		{"Subject", []string{"b", "a"}, "only b"},
		{"Body", []string{"a", "b", "c"}, "both"},
		{"Body", []string{"c", "a", "b"}, "c"},
		{"Body", []string{"a"}, "default"},
		{"Subject", []string{"a&b"}, "none"},
		{"Body", []string{"a & b"}, "default"},
		{"Subject", []string{"a,b"}, "none"},
	}

	for _, tt := range tests {
		got, err := cfg.Get(NewConditions(tt.conds...), "Demo", tt.key, Default("default"))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("Get(%v, %s) = %v, want %v", tt.conds, tt.key, got, tt.want)
		}
	}

	s := cfg.NewScope()
	s.AddCondition("a&b")
	if s.Conditions().Len() != 0 {
		t.Errorf("conjunction accepted as a token: %v", s.Conditions())
	}
	if got := s.String("Demo", "Subject", ""); got != "none" {
		t.Errorf("Subject = %q, want none", got)
	}
}

func TestGet_EmptyValues(t *testing.T) {
	cfg := mustParse(t, `[global]
Body = global body

[Demo]
Subject =
{x} Subject = x
{y} Subject =
{y} Body =
{y} Tags =
Tags = a, b
{y} Count =
Count = 3
`)

	tests := []struct {
		name  string
		conds []string
		key   string
		opts  []GetOption
		want  any
	}{
		{name: "empty unconditional", key: "Subject", opts: []GetOption{Default("dflt")}, want: "dflt"},
		{name: "conditional value", conds: []string{"x"}, key: "Subject", opts: []GetOption{Default("dflt")}, want: "x"},
		{name: "empty conditional", conds: []string{"y"}, key: "Subject", opts: []GetOption{Default("dflt")}, want: ""},
		{name: "empty conditional first", conds: []string{"y", "x"}, key: "Subject", opts: []GetOption{Default("dflt")}, want: ""},
		{name: "empty conditional shadows global", conds: []string{"y"}, key: "Body", opts: []GetOption{Default("dflt")}, want: ""},
		{name: "empty conditional list", conds: []string{"y"}, key: "Tags", opts: []GetOption{AsList(), Default([]any{"d"})}, want: []any{}},
		{name: "list without condition", key: "Tags", opts: []GetOption{AsList()}, want: []any{"a", "b"}},
		{name: "empty conditional int", conds: []string{"y"}, key: "Count", opts: []GetOption{As(TypeInt), Default(7)}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.Get(NewConditions(tt.conds...), "Demo", tt.key, tt.opts...)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet_LookupChain(t *testing.T) {
	cfg := mustParse(t, travelConfig)
	none := Conditions{}

	tests := []struct {
		name string
		key  string
		opts []GetOption
		want any
	}{
		{"section value", "Comment", nil, "Summarizing trips"},
		{"key case-insensitive", "COMMENT", nil, "Summarizing trips"},
		{"global value", "Charset", nil, "latin1"},
		{"builtin default", "Entries per page", []GetOption{As(TypeInt)}, 20},
		{"builtin before caller default", "Summary lines", []GetOption{As(TypeInt), Default(7)}, 3},
		{"caller default", "Nothing here", []GetOption{Default("fallback")}, "fallback"},
		{"no default", "Nothing here", nil, nil},
		{"bool", "Reverse sort", []GetOption{As(TypeBool)}, true},
		{"absent list", "Required Attributes", []GetOption{AsList()}, []any{}},
		{"list", "MOptions Who", []GetOption{AsList()}, []any{"Alice", "Bob", "Christine", "Dave"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.Get(none, "Travel", tt.key, tt.opts...)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet_UnknownSection(t *testing.T) {
	cfg := mustParse(t, travelConfig, WithStrict(true))

	got, err := cfg.Get(Conditions{}, "travel", "Comment", Default("x"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "x" {
		t.Errorf("Get() = %v, want x", got)
	}
}

func TestGet_Coercion(t *testing.T) {
	const text = `[Demo]
Entries per page = many
Width = wide
Numbers = 1, x, 3
Flag = maybe
`

	t.Run("lenient", func(t *testing.T) {
		cfg := mustParse(t, text)
		none := Conditions{}

		tests := []struct {
			name string
			key  string
			opts []GetOption
			want any
		}{
			{"scalar falls back to builtin", "Entries per page", []GetOption{As(TypeInt), Default(5)}, 20},
			{"scalar falls back to caller default", "Width", []GetOption{As(TypeInt), Default(7)}, 7},
			{"list drops bad elements", "Numbers", []GetOption{As(TypeInt), AsList()}, []any{1, 3}},
			{"bool passthrough", "Flag", []GetOption{As(TypeBool)}, "maybe"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := cfg.Get(none, "Demo", tt.key, tt.opts...)
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Get() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("strict", func(t *testing.T) {
		cfg := mustParse(t, text, WithStrict(true))

		for _, key := range []string{"Entries per page", "Numbers"} {
			_, err := cfg.Get(Conditions{}, "Demo", key, As(TypeInt), AsList())
			if !IsCoercion(err) {
				t.Errorf("Get(%s) error = %v, want coercion error", key, err)
			}
		}

		_, err := cfg.Get(Conditions{}, "Demo", "Flag", As(TypeBool))
		if !IsCoercion(err) {
			t.Errorf("Get(Flag) error = %v, want coercion error", err)
		}
	})
}

func TestGet_CustomDefaults(t *testing.T) {
	cfg := mustParse(t, "[Demo]\n", WithDefaults(map[string]string{"entries per page": "50"}))

	got, err := cfg.Get(Conditions{}, "Demo", "Entries per page", As(TypeInt))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != 50 {
		t.Errorf("Get() = %v, want 50", got)
	}

	got, _ = cfg.Get(Conditions{}, "Demo", "Charset", Default("none"))
	if got != "none" {
		t.Errorf("Get(Charset) = %v, want none", got)
	}
}
