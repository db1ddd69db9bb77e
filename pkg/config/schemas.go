package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// Value formats enforced for typed attributes.
const (
	datePattern     = `^\d{4}-\d{2}-\d{2}$`
	datetimePattern = `^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[-+]\d{2}:?\d{2})?$`
	numericPattern  = `^\s*[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?\s*$`
)

// FieldError is one attribute value rejected by the entry schema.
type FieldError struct {
	Attribute string `json:"attribute" yaml:"attribute"`
	Message   string `json:"message" yaml:"message"`
}

// EntryError lists the attribute values of an entry that do not satisfy
// the resolved schema.
type EntryError struct {
	Section string       `json:"section" yaml:"section"`
	Fields  []FieldError `json:"fields" yaml:"fields"`
}

func (e *EntryError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Attribute + ": " + f.Message
	}
	return fmt.Sprintf("entry does not match schema of %s: %s", e.Section, strings.Join(parts, "; "))
}

// EntryValidator checks entry attribute values against resolved schemas.
// Each schema is compiled to a CUE definition once and reused.
type EntryValidator struct {
	ctx  *cue.Context
	defs map[*Schema]cue.Value
	mu   sync.Mutex
}

// NewEntryValidator creates a validator with its own CUE context.
func NewEntryValidator() *EntryValidator {
	return &EntryValidator{
		ctx:  cuecontext.New(),
		defs: make(map[*Schema]cue.Value),
	}
}

// Validate checks values, a map of attribute name to selected values,
// against schema. Required attributes must have a non-empty value. Option
// attributes only accept configured options unless extendable, single
// select attributes accept one value, and date, datetime and numeric
// attributes must be well formed. Values for attributes the schema does
// not declare are ignored. A mismatch is reported as *EntryError.
func (v *EntryValidator) Validate(ctx context.Context, schema *Schema, values map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var fields []FieldError
	data := make(map[string]any)
	for _, a := range schema.attrs {
		var vals []string
		for _, s := range values[a.Name] {
			if s = strings.TrimSpace(s); s != "" {
				vals = append(vals, s)
			}
		}
		switch {
		case len(vals) == 0:
			if a.Required {
				fields = append(fields, FieldError{Attribute: a.Name, Message: "value is required"})
			}
		case a.IsMulti() || len(vals) > 1:
			data[a.Name] = vals
		default:
			data[a.Name] = vals[0]
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	def, err := v.definition(schema)
	if err != nil {
		return err
	}

	dataVal := v.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	if err := def.Unify(dataVal).Validate(cue.Concrete(true)); err != nil {
		fields = append(fields, convertCUEErrors(schema, err)...)
	}

	if len(fields) > 0 {
		return &EntryError{Section: schema.section, Fields: fields}
	}
	return nil
}

func (v *EntryValidator) definition(schema *Schema) (cue.Value, error) {
	if def, ok := v.defs[schema]; ok {
		return def, nil
	}
	val := v.ctx.CompileString(EntryDefinition(schema), cue.Filename(schema.section+".cue"))
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to compile entry schema for %s: %w", schema.section, err)
	}
	def := val.LookupPath(cue.ParsePath("#Entry"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to compile entry schema for %s: %w", schema.section, err)
	}
	v.defs[schema] = def
	return def, nil
}

// EntryDefinition renders schema as a CUE #Entry definition.
func EntryDefinition(schema *Schema) string {
	var b strings.Builder
	b.WriteString("#Entry: {\n")
	for _, a := range schema.attrs {
		fmt.Fprintf(&b, "\t%s?: %s\n", strconv.Quote(a.Name), entryConstraint(a))
	}
	b.WriteString("\t...\n}\n")
	return b.String()
}

func entryConstraint(a Attribute) string {
	elem := "string"
	switch a.ValType {
	case ValTypeDate:
		elem = "string & =~" + strconv.Quote(datePattern)
	case ValTypeDatetime:
		elem = "string & =~" + strconv.Quote(datetimePattern)
	case ValTypeNumeric:
		elem = "string & =~" + strconv.Quote(numericPattern)
	default:
		if len(a.Options) > 0 && !a.Extendable {
			quoted := make([]string, len(a.Options))
			for i, o := range a.Options {
				quoted[i] = strconv.Quote(o)
			}
			elem = strings.Join(quoted, " | ")
		}
	}
	if a.IsMulti() {
		return "[...(" + elem + ")]"
	}
	return "(" + elem + ")"
}

// convertCUEErrors maps CUE errors to the attributes they concern, keeping
// the first message per attribute.
func convertCUEErrors(schema *Schema, err error) []FieldError {
	var out []FieldError
	seen := make(map[string]bool)
	for _, e := range errors.Errors(err) {
		attr := ""
		for _, p := range e.Path() {
			name := p
			if u, err := strconv.Unquote(p); err == nil {
				name = u
			}
			if _, ok := schema.index[name]; ok {
				attr = name
				break
			}
		}
		if seen[attr] {
			continue
		}
		seen[attr] = true

		format, args := e.Msg()
		out = append(out, FieldError{
			Attribute: attr,
			Message:   fmt.Sprintf(format, args...),
		})
	}
	return out
}
