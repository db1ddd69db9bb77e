package config

// GlobalSection is the reserved section holding settings shared by all logbooks.
const GlobalSection = "global"

// Reserved keys read by the schema builder.
const (
	KeyAttributes         = "Attributes"
	KeyRequiredAttributes = "Required Attributes"
	KeyExtendableOptions  = "Extendable Options"
	KeyTypePrefix         = "Type"
)

// DefaultAttributeNames are used when a logbook declares no Attributes.
var DefaultAttributeNames = []string{"Type", "Category", "Subject"}

// BuiltinDefaults are consulted when neither the logbook section nor the
// global section sets a key. Keys are lower case; values are raw text and
// go through the same coercion as configured values.
var BuiltinDefaults = map[string]string{
	"all display limit":      "500",
	"attachment lines":       "300",
	"charset":                "UTF-8",
	"display mode":           "summary",
	"entries per page":       "20",
	"hide comments":          "false",
	"list display":           "ID, Date, Author, *attributes, Text, Attachments",
	"max content length":     "10485760",
	"protect selection page": "0",
	"reverse sort":           "true",
	"search all logbooks":    "1",
	"show attachments":       "true",
	"show text":              "true",
	"summary lines":          "3",
	"summary line length":    "100",
	"time format":            "%m/%d/%Y %I:%M:%S %p",
}
