package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		attributeNamingPolicy(),
		numericOptionsPolicy(),
		pageSizePolicy(),
	}
}

// attributeNamingPolicy flags attribute names that $variable substitution
// cannot match.
func attributeNamingPolicy() Policy {
	return Policy{
		Name:        "attribute-naming",
		Description: "Attribute names must start with a letter and contain only letters, digits, spaces, '-' and '_'",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"naming", "substitution"},
		Rego: `package logbook.policies.naming

import rego.v1

deny contains violation if {
	some attr in input.attributes
	not regex.match("^[A-Za-z][A-Za-z0-9 _-]*$", attr.name)
	violation := {
		"message": sprintf("attribute name '%s' cannot be used as a $variable", [attr.name]),
		"attribute": attr.name,
		"remediation": "rename the attribute using letters, digits, spaces, '-' and '_'",
	}
}
`,
	}
}

// numericOptionsPolicy flags options of numeric attributes that are not
// numbers.
func numericOptionsPolicy() Policy {
	return Policy{
		Name:        "numeric-options",
		Description: "Options of a numeric attribute must be numbers",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"types", "options"},
		Rego: `package logbook.policies.numeric

import rego.v1

deny contains violation if {
	some attr in input.attributes
	attr.val_type == "numeric"
	some opt in attr.options
	not regex.match("^-?[0-9]+([.][0-9]+)?$", opt)
	violation := {
		"message": sprintf("option '%s' of numeric attribute '%s' is not a number", [opt, attr.name]),
		"attribute": attr.name,
		"remediation": "remove the option or drop the numeric type",
	}
}
`,
	}
}

// pageSizePolicy flags page sizes the logbook list view cannot sensibly
// render.
func pageSizePolicy() Policy {
	return Policy{
		Name:        "page-size",
		Description: "Entries per page must be between 1 and 1000",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"display"},
		Rego: `package logbook.policies.display

import rego.v1

deny contains violation if {
	value := input.settings["entries per page"]
	n := to_number(value)
	not valid_page_size(n)
	violation := {
		"message": sprintf("entries per page is %s, expected 1 to 1000", [value]),
		"remediation": "set Entries per page between 1 and 1000",
	}
}

valid_page_size(n) if {
	n >= 1
	n <= 1000
}
`,
	}
}
