package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flexelog/logbookcfg/pkg/config"
)

// LogbookText is the configuration text of one logbook, without its
// section header.
type LogbookText struct {
	Name string
	Text string
}

// Assembly is configuration text built from several sources. It remembers
// where each line came from so errors can point at the source file.
type Assembly struct {
	Text    string
	origins []origin
}

type origin struct {
	start     int
	source    string
	synthetic bool
}

// Locate maps a line of the assembled text to its source and line number
// within that source. Lines added during assembly report line 0.
func (a *Assembly) Locate(line int) (string, int) {
	i := sort.Search(len(a.origins), func(i int) bool {
		return a.origins[i].start > line
	}) - 1
	if i < 0 {
		return "", line
	}
	o := a.origins[i]
	if o.synthetic {
		return o.source, 0
	}
	return o.source, line - o.start + 1
}

type assembler struct {
	b       strings.Builder
	line    int
	origins []origin
}

func (a *assembler) write(source string, synthetic bool, text string) {
	if text == "" {
		return
	}
	if !synthetic && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	a.origins = append(a.origins, origin{start: a.line, source: source, synthetic: synthetic})
	a.b.WriteString(text)
	a.line += strings.Count(text, "\n")
}

// Assemble builds one configuration from the global settings and the text
// of each logbook. Every part is placed under its own section header, so
// the parts themselves must not contain headers.
func Assemble(global string, logbooks []LogbookText) (*Assembly, error) {
	if err := checkNoHeaders(config.GlobalSection, global); err != nil {
		return nil, err
	}

	a := &assembler{line: 1}
	a.write(config.GlobalSection, true, "["+config.GlobalSection+"]\n")
	a.write(config.GlobalSection, false, global)
	a.write(config.GlobalSection, true, "\n")

	for _, lb := range logbooks {
		if lb.Name == "" || strings.ContainsAny(lb.Name, "[]\n") {
			return nil, fmt.Errorf("invalid logbook name %q", lb.Name)
		}
		if err := checkNoHeaders(lb.Name, lb.Text); err != nil {
			return nil, err
		}
		a.write(lb.Name, true, "\n\n["+lb.Name+"]\n")
		if lb.Text == "" {
			a.write(lb.Name, true, "\n")
			continue
		}
		a.write(lb.Name, false, lb.Text)
	}

	return &Assembly{Text: a.b.String(), origins: a.origins}, nil
}

// single wraps one complete configuration file.
func single(source, text string) *Assembly {
	return &Assembly{
		Text:    text,
		origins: []origin{{start: 1, source: source}},
	}
}

func checkNoHeaders(name, text string) error {
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "[") {
			return fmt.Errorf("%s line %d: section headers are added automatically: %q", name, i+1, line)
		}
	}
	return nil
}
