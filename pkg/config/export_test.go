package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExport_RoundTrip(t *testing.T) {
	text := travelConfig + `
[Notes]
Welcome title = Notes
  second line
List display = "Date, Time", Author
Subject prefix = #notes; daily
URL = http://example.com/?a=b
{eu} Subject prefix = EU
`
	cfg := mustParse(t, text)

	out, err := cfg.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.Contains(string(out), "Germany") {
		t.Errorf("conditional values should not be exported:\n%s", out)
	}

	again := mustParse(t, string(out))
	for _, name := range cfg.Sections() {
		if !again.HasSection(name) {
			t.Errorf("section %s missing after round trip", name)
			continue
		}
		sec := cfg.sections[name]
		for _, lower := range sec.order {
			want, ok := sec.keys[lower].values[""]
			if !ok {
				continue
			}
			got, err := again.Get(Conditions{}, name, sec.names[lower])
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if want == "" {
				continue
			}
			if got != want {
				t.Errorf("[%s] %s = %q after round trip, want %q", name, sec.names[lower], got, want)
			}
		}
	}

	got, _ := again.Get(NewConditions("eu"), "Notes", "Subject prefix")
	if got != "#notes; daily" {
		t.Errorf("conditional value survived export: %q", got)
	}
}

func TestExport_DefaultSection(t *testing.T) {
	cfg := mustParse(t, "[global]\nCharset = UTF-8\n\n[DEFAULT]\nAttributes = A, B\n\n[Notes]\nAttributes = C\n")

	out, err := cfg.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(string(out), "[global]\n") {
		t.Errorf("export does not start with the first section:\n%s", out)
	}

	again, err := Parse(string(out), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("Parse() of exported text error = %v\n%s", err, out)
	}
	if diff := cmp.Diff(cfg.Sections(), again.Sections()); diff != "" {
		t.Errorf("Sections() mismatch (-want +got):\n%s", diff)
	}
	got, _ := again.Get(Conditions{}, "DEFAULT", "Attributes")
	if got != "A, B" {
		t.Errorf("[DEFAULT] Attributes = %v, want A, B", got)
	}
	if got, _ := again.Get(Conditions{}, "Notes", "Attributes"); got != "C" {
		t.Errorf("[Notes] Attributes = %v, want C", got)
	}
}
