// Package policy checks logbook configurations against Open Policy Agent
// (OPA) policies written in Rego.
//
// A policy is a Rego module with a deny set. It is evaluated once per
// logbook, with the logbook resolved under the evaluation conditions as
// input:
//
//	{
//	    "logbook":    "Travel",
//	    "conditions": ["ca"],
//	    "attributes": [{"name": "Where", "required": true, "options_type": "Options", "options": ["Canada", "Europe"]}],
//	    "settings":   {"entries per page": "30", "time format": "%d.%m.%Y"}
//	}
//
// Settings holds every key declared in the logbook or in global, with names
// folded by config.Fold and resolved values.
//
// # Usage
//
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    return err
//	}
//	if err := eng.LoadPolicies(ctx, []string{"/etc/elogd/policies"}); err != nil {
//	    return err
//	}
//
//	result, err := eng.Evaluate(ctx, cfg, config.NewConditions())
//	if err != nil {
//	    return err
//	}
//	for _, v := range result.Violations {
//	    fmt.Printf("%s: %s (%s)\n", v.Logbook, v.Message, v.Policy)
//	}
//
// # Built-in Policies
//
//  1. attribute-naming - attribute names usable as $variables
//  2. numeric-options - options of numeric attributes are numbers
//  3. page-size - Entries per page between 1 and 1000
//
// # Custom Policies
//
// A .rego file is named after its file. Its leading comment block is the
// description, and a "# severity: error" line sets the default severity:
//
//	package custom.policies.author
//
//	# Every logbook records an author.
//	# severity: error
//
//	import rego.v1
//
//	deny contains violation if {
//	    not "Author" in {a.name | some a in input.attributes}
//	    violation := {"message": "logbook has no Author attribute"}
//	}
//
// A violation object may carry "message", "severity", "attribute" and
// "remediation". A plain string is taken as the message.
//
// Policies are compiled once into prepared queries and reused for every
// evaluation.
package policy
