package config

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConditions_Add(t *testing.T) {
	base := NewConditions("eu")
	added := base.Add("EU").Add(" eu ").Add("").Add("eu&ca").Add("us,ca")
	if diff := cmp.Diff([]string{"eu"}, added.Tokens()); diff != "" {
		t.Errorf("Tokens() mismatch (-want +got):\n%s", diff)
	}

	next := base.Add("us")
	other := base.Add("ca")
	if diff := cmp.Diff([]string{"eu"}, base.Tokens()); diff != "" {
		t.Errorf("Add modified receiver (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"eu", "us"}, next.Tokens()); diff != "" {
		t.Errorf("next mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"eu", "ca"}, other.Tokens()); diff != "" {
		t.Errorf("other mismatch (-want +got):\n%s", diff)
	}

	if !next.Has("US") || next.Has("ca") {
		t.Error("Has() mismatch")
	}
	if next.String() != "eu,us" {
		t.Errorf("String() = %q", next.String())
	}
}

func TestScope_AddConditionIdempotent(t *testing.T) {
	cfg := mustParse(t, travelConfig)

	once := cfg.NewScope()
	once.AddCondition("us")

	twice := cfg.NewScope()
	twice.AddCondition("us")
	twice.AddCondition("US")

	if diff := cmp.Diff(once.Conditions().Tokens(), twice.Conditions().Tokens()); diff != "" {
		t.Errorf("conditions differ (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(once.List("Travel", "MOptions Where2"), twice.List("Travel", "MOptions Where2")); diff != "" {
		t.Errorf("lookups differ (-once +twice):\n%s", diff)
	}
}

func TestScope_WithScope(t *testing.T) {
	cfg := mustParse(t, travelConfig)
	s := cfg.NewScope()
	s.AddCondition("leftover")

	errBoom := errors.New("boom")
	err := s.WithScope(func(s *Scope) error {
		if s.Conditions().Len() != 0 {
			t.Errorf("conditions not cleared on entry: %v", s.Conditions())
		}
		s.AddCondition("eu")
		if got := s.List("Travel", "MOptions Where2"); len(got) != 7 {
			t.Errorf("expected eu options inside scope, got %v", got)
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("WithScope() error = %v, want %v", err, errBoom)
	}
	if s.Conditions().Len() != 0 {
		t.Errorf("conditions leaked after error: %v", s.Conditions())
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		_ = s.WithScope(func(s *Scope) error {
			s.AddCondition("us")
			panic("render failed")
		})
	}()
	if s.Conditions().Len() != 0 {
		t.Errorf("conditions leaked after panic: %v", s.Conditions())
	}

	err = cfg.WithScope(func(s *Scope) error {
		s.AddCondition("us")
		return nil
	})
	if err != nil {
		t.Errorf("Config.WithScope() error = %v", err)
	}
}

func TestScope_DeriveConditionsFrom(t *testing.T) {
	cfg := mustParse(t, travelConfig)

	s := cfg.NewScope()
	n := s.DeriveConditionsFrom("Travel", map[string][]string{
		"Where":   {"Europe"},
		"Who":     {"Alice"},
		"Unknown": {"Canada"},
	})
	if n != 1 {
		t.Errorf("DeriveConditionsFrom() = %d, want 1", n)
	}
	if diff := cmp.Diff([]string{"eu"}, s.Conditions().Tokens()); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
	want := []string{"Germany", "France", "UK", "Italy", "Slovenia", "Czech", "Hungary"}
	if diff := cmp.Diff(want, s.List("Travel", "MOptions Where2")); diff != "" {
		t.Errorf("Where2 mismatch (-want +got):\n%s", diff)
	}

	if n := s.DeriveConditionsFrom("Travel", map[string][]string{"Where": {"Europe"}}); n != 0 {
		t.Errorf("repeated derivation added %d conditions", n)
	}
	if n := s.DeriveConditionsFrom("Nowhere", map[string][]string{"Where": {"US"}}); n != 0 {
		t.Errorf("unknown section added %d conditions", n)
	}
}

func TestScope_DeriveConditionsConjunctionOption(t *testing.T) {
	cfg := mustParse(t, `[Demo]
Attributes = Region, Subject
Options Region = Both{eu&ca}, Europe{eu}
{eu&ca} Subject = both
Subject = none
`)

	s := cfg.NewScope()
	if n := s.DeriveConditionsFrom("Demo", map[string][]string{"Region": {"Both"}}); n != 0 {
		t.Errorf("DeriveConditionsFrom() = %d, want 0", n)
	}
	if got := s.String("Demo", "Subject", ""); got != "none" {
		t.Errorf("Subject = %q, want none", got)
	}

	s.DeriveConditionsFrom("Demo", map[string][]string{"Region": {"Europe"}})
	s.AddCondition("ca")
	if got := s.String("Demo", "Subject", ""); got != "both" {
		t.Errorf("Subject under eu, ca = %q, want both", got)
	}
}

func TestScope_DeriveConditionsCascade(t *testing.T) {
	cfg := mustParse(t, `[Hardware]
Attributes = Vendor, Model, Port
Options Vendor = Acme{acme}, Globex{globex}
{acme} Options Model = Rocket{rocket}, Anvil
{globex} Options Model = Widget
{rocket} Options Port = USB-C, Serial
`)

	s := cfg.NewScope()
	n := s.DeriveConditionsFrom("Hardware", map[string][]string{
		"Vendor": {"Acme"},
		"Model":  {"Rocket"},
	})
	if n != 2 {
		t.Errorf("DeriveConditionsFrom() = %d, want 2", n)
	}
	if diff := cmp.Diff([]string{"acme", "rocket"}, s.Conditions().Tokens()); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}

	schema, _ := s.AttributesFor("Hardware")
	port, _ := schema.Attribute("Port")
	if diff := cmp.Diff([]string{"USB-C", "Serial"}, port.Options); diff != "" {
		t.Errorf("Port options mismatch (-want +got):\n%s", diff)
	}
}

func TestScope_TypedGetters(t *testing.T) {
	cfg := mustParse(t, `[Demo]
Summary lines = 5
Ratio = 0.25
Hide comments = yes
Show text = sometimes
Entries per page = lots
`)
	s := cfg.NewScope()

	if got := s.Int("Demo", "Summary lines", 1); got != 5 {
		t.Errorf("Int(Summary lines) = %d", got)
	}
	if got := s.Int("Demo", "Entries per page", 1); got != 20 {
		t.Errorf("Int(Entries per page) = %d, want builtin 20", got)
	}
	if got := s.Float("Demo", "Ratio", 1); got != 0.25 {
		t.Errorf("Float(Ratio) = %v", got)
	}
	if got := s.Bool("Demo", "Hide comments", false); !got {
		t.Error("Bool(Hide comments) = false")
	}
	if got := s.Bool("Demo", "Show text", false); got {
		t.Error("Bool(Show text) should fall back to the default for non-boolean text")
	}
	if got := s.Bool("Demo", "Reverse sort", false); !got {
		t.Error("Bool(Reverse sort) should use the builtin default")
	}
	if got := s.String("Demo", "Charset", "ascii"); got != "UTF-8" {
		t.Errorf("String(Charset) = %q", got)
	}
	if got := s.String("Demo", "Missing", "ascii"); got != "ascii" {
		t.Errorf("String(Missing) = %q", got)
	}
	if got := s.List("Demo", "Missing"); got != nil {
		t.Errorf("List(Missing) = %v", got)
	}
}

func TestScope_AttributeNameListings(t *testing.T) {
	cfg := mustParse(t, `[Demo]
Attributes = Status, Author, Icon
Required Attributes = Author, Status
IOptions Icon = a.png, b.png
`)
	s := cfg.NewScope()

	if diff := cmp.Diff([]string{"Icon"}, s.IOptions("Demo", false)); diff != "" {
		t.Errorf("IOptions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"status", "author"}, s.Required("Demo", true)); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
	if got := s.Required("Nowhere", false); got != nil {
		t.Errorf("Required(Nowhere) = %v", got)
	}
}

func TestScope_Concurrent(t *testing.T) {
	cfg := mustParse(t, travelConfig)

	conds := map[string]string{"eu": "Germany", "us": "FL", "ca": "AB", "oth": "Somewhere"}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for cond, first := range conds {
				err := cfg.WithScope(func(s *Scope) error {
					s.AddCondition(cond)
					got := s.List("Travel", "MOptions Where2")
					if len(got) == 0 || got[0] != first {
						return fmt.Errorf("worker %d: %s resolved to %v", i, cond, got)
					}
					return nil
				})
				if err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
