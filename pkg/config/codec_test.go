package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "a, b ,c", []string{"a", "b", "c"}},
		{"quoted comma", `"Smith, John", Doe`, []string{"Smith, John", "Doe"}},
		{"empty elements dropped", "a,, b,", []string{"a", "b"}},
		{"blank", "   ", nil},
		{"only commas", " , ,", nil},
		{"multi-line", "a, b\nc", []string{"a", "b", "c"}},
		{"condition suffixes kept", "Canada{ca}, Europe{eu}", []string{"Canada{ca}", "Europe{eu}"}},
		{"stray quote", `6" pipe, hose`, []string{`6" pipe`, "hose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ToList(tt.raw)); diff != "" {
				t.Errorf("ToList(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"1", true},
		{"On", true},
		{"TRUE", true},
		{"yes", true},
		{"0", false},
		{"off", false},
		{"False", false},
		{" no ", false},
		{"maybe", "maybe"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CoerceBool(tt.raw); got != tt.want {
			t.Errorf("CoerceBool(%q) = %v (%T), want %v (%T)", tt.raw, got, got, tt.want, tt.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		typ     ValueType
		want    any
		wantErr bool
	}{
		{"string", " keep ", TypeString, " keep ", false},
		{"int", " 42 ", TypeInt, 42, false},
		{"bad int", "4.2", TypeInt, nil, true},
		{"float", "4.5", TypeFloat, 4.5, false},
		{"bad float", "lots", TypeFloat, nil, true},
		{"bool", "yes", TypeBool, true, false},
		{"bool passthrough", "perhaps", TypeBool, "perhaps", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Coerce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseValueType(t *testing.T) {
	for name, want := range map[string]ValueType{
		"":        TypeString,
		"str":     TypeString,
		"bool":    TypeBool,
		"int":     TypeInt,
		"numeric": TypeFloat,
	} {
		got, ok := ParseValueType(name)
		if !ok || got != want {
			t.Errorf("ParseValueType(%q) = %v, %v", name, got, ok)
		}
	}

	if _, ok := ParseValueType("date"); ok {
		t.Error("expected date to be rejected")
	}
}
