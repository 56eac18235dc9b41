// Package sanitize detects contact details (emails, phone numbers, links and
// long digit runs) in user-written text. Sanitize redacts them for readers
// without a contact entitlement; Validate reports them so a submission can be
// rejected outright.
package sanitize

import "regexp"

// Placeholders written in place of redacted spans. Stored content and
// clients depend on these exact strings.
const (
	ContactPlaceholder = "[contact hidden]"
	LinkPlaceholder    = "[link hidden]"
)

// Class names a kind of contact detail.
type Class string

const (
	ClassEmail   Class = "email"
	ClassPhone   Class = "phone"
	ClassURL     Class = "url"
	ClassNumeric Class = "numeric"
)

type rule struct {
	class       Class
	pattern     *regexp.Regexp
	placeholder string
	violation   string
}

// rules run in this order. A later rule sees the output of earlier ones, so
// for overlapping spans the earlier placeholder wins.
var rules = []rule{
	{
		class:       ClassEmail,
		pattern:     regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`),
		placeholder: ContactPlaceholder,
		violation:   "Email addresses are not allowed",
	},
	{
		class:       ClassPhone,
		pattern:     regexp.MustCompile(`(\+91[-\s]?)?[6-9]\d{9}`),
		placeholder: ContactPlaceholder,
		violation:   "Phone numbers are not allowed",
	},
	{
		class:       ClassURL,
		pattern:     regexp.MustCompile(`(?i)(?:https?://|www\.|wa\.me/|t\.me/|bit\.ly/)\S+`),
		placeholder: LinkPlaceholder,
		violation:   "URLs and links are not allowed",
	},
	{
		class:       ClassNumeric,
		pattern:     regexp.MustCompile(`(\d[\s-]){9,}\d|\d{10,}`),
		placeholder: ContactPlaceholder,
		violation:   "Long number sequences are not allowed",
	},
}

// Result is the outcome of Sanitize.
type Result struct {
	Text          string `json:"sanitized"`
	HasRedactions bool   `json:"hasRedactions"`
}

// Sanitize redacts contact details from text unless canReveal is set.
//
// Each rule is matched and replaced against the text produced by the rules
// before it, so a rule reports a redaction only when it changed something
// still visible at that point. With no redaction the input is returned
// byte-for-byte.
func Sanitize(text string, canReveal bool) Result {
	if canReveal {
		return Result{Text: text}
	}

	res := Result{Text: text}
	for _, r := range rules {
		if !r.pattern.MatchString(res.Text) {
			continue
		}
		res.Text = r.pattern.ReplaceAllLiteralString(res.Text, r.placeholder)
		res.HasRedactions = true
	}
	return res
}

// Validation is the outcome of Validate.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate reports one message per rule that matches the raw text. It never
// modifies the text; callers decide whether to reject.
func Validate(text string) Validation {
	errs := []string{}
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			errs = append(errs, r.violation)
		}
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// Detect returns the classes found in the raw text, in rule order.
func Detect(text string) []Class {
	var found []Class
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			found = append(found, r.class)
		}
	}
	return found
}
