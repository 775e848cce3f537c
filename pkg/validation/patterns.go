package validation

import (
	"regexp"

	"github.com/goliatone/go-formcrud/pkg/model"
)

type namedPattern struct {
	expr    *regexp.Regexp
	message string
}

var namedPatterns = map[string]namedPattern{
	model.PatternEmail: {
		expr:    regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
		message: "Please enter a valid email address",
	},
	model.PatternPhone: {
		expr:    regexp.MustCompile(`^\d{10}$`),
		message: "Please enter a valid 10-digit phone number",
	},
	model.PatternURL: {
		expr:    regexp.MustCompile(`^https?://.+`),
		message: "Please enter a valid URL",
	},
	model.PatternAlphanumeric: {
		expr:    regexp.MustCompile(`^[a-zA-Z0-9\s]+$`),
		message: "Only letters and numbers are allowed",
	},
	model.PatternAlpha: {
		expr:    regexp.MustCompile(`^[a-zA-Z\s]+$`),
		message: "Only letters are allowed",
	},
}

// InvalidFormatMessage is reported when a custom regex does not match.
const InvalidFormatMessage = "Invalid format"

// PatternMessage returns the message used for a named pattern mismatch.
func PatternMessage(name string) string {
	if p, ok := namedPatterns[name]; ok {
		return p.message
	}
	return InvalidFormatMessage
}
