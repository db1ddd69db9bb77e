package config

import (
	"bytes"
	"fmt"

	"github.com/go-ini/ini"
)

// Export serializes the unconditional key/value pairs of every section in
// declaration order, with keys in their declared spelling. Conditional
// declarations are not exported. Parsing the output yields the same
// unconditional values.
//
// Every section is written under its own header. A section named DEFAULT
// is an ordinary logbook here, while go-ini writes its default section
// without one.
func (c *Config) Export() ([]byte, error) {
	var buf bytes.Buffer

	for i, name := range c.order {
		sec := c.sections[name]
		f := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
		out := f.Section(ini.DefaultSection)
		for _, lower := range sec.order {
			v, ok := sec.keys[lower].values[""]
			if !ok {
				continue
			}
			if _, err := out.NewKey(sec.names[lower], v); err != nil {
				return nil, fmt.Errorf("failed to add key %q to section %q: %w", sec.names[lower], name, err)
			}
		}

		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "[%s]\n", name)
		if _, err := f.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to write section %q: %w", name, err)
		}
	}

	return buf.Bytes(), nil
}
