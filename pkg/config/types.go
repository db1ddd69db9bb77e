package config

import (
	"maps"
	"slices"
)

// OptionsType is the value discipline of an attribute.
type OptionsType string

const (
	// OptionsText is free text input.
	OptionsText OptionsType = "Text"

	// OptionsSingle is a single-select drop-down.
	OptionsSingle OptionsType = "Options"

	// OptionsMulti is a multi-select checkbox list.
	OptionsMulti OptionsType = "MOptions"

	// OptionsRadio is a single-select radio group.
	OptionsRadio OptionsType = "ROptions"

	// OptionsIcon is a single-select radio group rendered with icons.
	OptionsIcon OptionsType = "IOptions"
)

// optionPrefixes is the lookup order for option declarations. A later prefix
// overwrites an earlier one when several are configured for one attribute.
var optionPrefixes = []OptionsType{OptionsSingle, OptionsMulti, OptionsRadio, OptionsIcon}

// IsMulti reports whether the attribute accepts more than one value.
func (t OptionsType) IsMulti() bool {
	return t == OptionsMulti
}

// Semantic value types set with `Type <attribute> = <type>`.
const (
	ValTypeDate       = "date"
	ValTypeDatetime   = "datetime"
	ValTypeNumeric    = "numeric"
	ValTypeUserlist   = "userlist"
	ValTypeUseremail  = "useremail"
	ValTypeMUserlist  = "muserlist"
	ValTypeMUseremail = "museremail"
)

var knownValTypes = map[string]bool{
	ValTypeDate:       true,
	ValTypeDatetime:   true,
	ValTypeNumeric:    true,
	ValTypeUserlist:   true,
	ValTypeUseremail:  true,
	ValTypeMUserlist:  true,
	ValTypeMUseremail: true,
}

// Attribute describes one user-defined field of a logbook entry.
type Attribute struct {
	// Name is the attribute name as declared in the Attributes list.
	Name string `json:"name" yaml:"name"`

	// Required is set by the Required Attributes list.
	Required bool `json:"required" yaml:"required"`

	// Extendable is set by the Extendable Options list.
	Extendable bool `json:"extendable" yaml:"extendable"`

	// OptionsType is Text unless an option list is configured.
	OptionsType OptionsType `json:"options_type" yaml:"options_type"`

	// Options are the offered values, without their {condition} suffixes.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// ValConditions maps an option to the condition selecting it activates.
	ValConditions map[string]string `json:"val_conditions,omitempty" yaml:"val_conditions,omitempty"`

	// ValType is the semantic type (date, numeric, userlist...) or empty for text.
	ValType string `json:"val_type,omitempty" yaml:"val_type,omitempty"`
}

// IsMulti reports whether the attribute takes a list of values.
func (a Attribute) IsMulti() bool {
	return a.OptionsType.IsMulti() || a.ValType == ValTypeMUserlist || a.ValType == ValTypeMUseremail
}

// HasOption reports whether opt is one of the configured options.
func (a Attribute) HasOption(opt string) bool {
	return slices.Contains(a.Options, opt)
}

func (a Attribute) clone() Attribute {
	a.Options = slices.Clone(a.Options)
	a.ValConditions = maps.Clone(a.ValConditions)
	return a
}

// Schema is the ordered attribute set of one section under one set of
// active conditions. A Schema is shared between callers and never modified
// after it is built; accessors return copies.
type Schema struct {
	section    string
	conditions Conditions
	attrs      []Attribute
	index      map[string]int
	warnings   []Warning
}

// Section returns the section the schema was built for.
func (s *Schema) Section() string {
	return s.section
}

// Conditions returns the active conditions the schema was resolved under.
func (s *Schema) Conditions() Conditions {
	return s.conditions
}

// Len returns the number of attributes.
func (s *Schema) Len() int {
	return len(s.attrs)
}

// Names returns attribute names in declared order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.Name
	}
	return names
}

// Attributes returns copies of all attributes in declared order.
func (s *Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.clone()
	}
	return out
}

// Attribute returns a copy of the named attribute. Names are case-sensitive.
func (s *Schema) Attribute(name string) (Attribute, bool) {
	i, ok := s.index[name]
	if !ok {
		return Attribute{}, false
	}
	return s.attrs[i].clone(), true
}

// Warnings returns the semantic problems found while building the schema.
func (s *Schema) Warnings() []Warning {
	return slices.Clone(s.warnings)
}

// ValueType selects the coercion Get applies to a raw value.
type ValueType int

const (
	// TypeString returns the raw string.
	TypeString ValueType = iota

	// TypeBool applies CoerceBool; unrecognised text passes through as a string.
	TypeBool

	// TypeInt parses a base 10 integer.
	TypeInt

	// TypeFloat parses a floating point number.
	TypeFloat
)

// String returns the type name used in logs and on the command line.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// ParseValueType maps a command line type name to a ValueType.
func ParseValueType(name string) (ValueType, bool) {
	switch name {
	case "", "string", "str":
		return TypeString, true
	case "bool":
		return TypeBool, true
	case "int":
		return TypeInt, true
	case "float", "numeric":
		return TypeFloat, true
	}
	return TypeString, false
}
