// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	"regexp"
	"strings"
)

// Names of the built-in redactors, as used in configuration files and on the command line.
const (
	Credentials            = "credentials"
	Password               = "password"
	Username               = "username"
	FacebookProfile        = "facebook_profile"
	LinkedInProfile        = "linkedin_profile"
	URL                    = "url"
	EmailAddress           = "email_address"
	IPAddress              = "ip_address"
	CreditCardNumber       = "credit_card_number"
	USSocialSecurityNumber = "us_social_security_number"
	CanadianSIN            = "canadian_sin"
	PhoneNumber            = "phone_number"
	StreetAddress          = "street_address"
	Zipcode                = "zipcode"
	CanadianPostalCode     = "canadian_postal_code"
	Names                  = "names"
	Digits                 = "digits"
)

const (
	streetSuffixes = `(street|st|avenue|ave|road|rd|highway|hwy|square|sq|trail|trl|drive|dr|court|ct|parkway|pkwy|circle|cir|boulevard|blvd|lane|ln)`
	streetUnits    = `(apt|bldg|dept|fl|hngr|lot|pier|rm|ste|slip|trlr|unit|#)\.? *[a-z0-9-]+\b`

	// Canadian postal codes never use D, F, I, O, Q or U, and W and Z never lead.
	postalLead  = `[abceghj-nprstvxy]`
	postalOther = `[abceghj-nprstv-z]`

	// phoneWord is a seven character vanity number with at least one digit in it. An all-letter word such as the
	// ZIPCODE placeholder must not be read as the second half of a phone number.
	phoneWord = `(?:[0-9][A-Z0-9]{6}|[A-Z][0-9][A-Z0-9]{5}|[A-Z]{2}[0-9][A-Z0-9]{4}|[A-Z]{3}[0-9][A-Z0-9]{3}|` +
		`[A-Z]{4}[0-9][A-Z0-9]{2}|[A-Z]{5}[0-9][A-Z0-9]|[A-Z]{6}[0-9])`
)

var (
	credentialsRegex  = regexp.MustCompile(`(?i)(login( cred(ential)?s| info(rmation)?)?|cred(ential)?s) ?:\s*\S+\s+/?\s*\S+`)
	passwordRegex     = regexp.MustCompile(`(?i)(pass(word|phrase)?|secret): \S+`)
	usernameRegex     = regexp.MustCompile(`(?i)(user( ?name)?|login): \S+`)
	facebookRegex     = regexp.MustCompile(`(?i)(https?://)?(www\.)?facebook\.com/[a-z0-9._-]+/?`)
	linkedInRegex     = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/(in|company|pub|school)/[a-z0-9_%-]+/?`)
	urlRegex          = regexp.MustCompile(`([^\s:/?#]+)://([^/?#\s]*)([^?#\s]*)(\?([^#\s]*))?(#(\S*))?`)
	emailRegex        = regexp.MustCompile(`(?i)([a-z0-9_\-.+]+)@\w+(\.\w+)*`)
	ipAddressRegex    = regexp.MustCompile(`(?i)(\d{1,3}(\.\d{1,3}){3}|[0-9a-f]{4}(:[0-9a-f]{4}){5}(::|(:0000)+))`)
	creditCardRegex   = regexp.MustCompile(`\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}|\d{4}[ -]?\d{6}[ -]?\d{4}\d?`)
	ssnRegex          = regexp.MustCompile(`\b\d{3}[ .-]\d{2}[ .-]\d{4}\b`)
	canadianSINRegex  = regexp.MustCompile(`\b\d{3}[ -]\d{3}[ -]\d{3}\b`)
	phoneRegex        = regexp.MustCompile(`(\(?\+?[0-9]{1,2}\)?[-. ]?)?(\(?[0-9]{3}\)?|[0-9]{3})[-. ]?([0-9]{3}[-. ]?[0-9]{4}|\b` + phoneWord + `\b)`)
	streetRegex       = regexp.MustCompile(`(?i)\d+\s*(\w+ ){1,2}` + streetSuffixes + `\b(\s+` + streetUnits + `)?`)
	zipcodeRegex      = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)
	postalCodeRegex   = regexp.MustCompile(`(?i)\b` + postalLead + `\d` + postalOther + `[ -]?\d` + postalOther + `\d\b`)
	digitsRegex       = regexp.MustCompile(`\b\d{4,}\b`)
	builtInRegexpByID = map[string]*regexp.Regexp{
		Credentials:            credentialsRegex,
		Password:               passwordRegex,
		Username:               usernameRegex,
		FacebookProfile:        facebookRegex,
		LinkedInProfile:        linkedInRegex,
		URL:                    urlRegex,
		EmailAddress:           emailRegex,
		IPAddress:              ipAddressRegex,
		CreditCardNumber:       creditCardRegex,
		USSocialSecurityNumber: ssnRegex,
		CanadianSIN:            canadianSINRegex,
		PhoneNumber:            phoneRegex,
		StreetAddress:          streetRegex,
		Zipcode:                zipcodeRegex,
		CanadianPostalCode:     postalCodeRegex,
		Digits:                 digitsRegex,
	}
)

// canonicalOrder is the order built-ins run in. More specific detectors come first: profile links before generic
// URLs, URLs before e-mail addresses, every structured number and the name heuristic before the catch-all digits.
var canonicalOrder = []string{
	Credentials,
	Password,
	Username,
	FacebookProfile,
	LinkedInProfile,
	URL,
	EmailAddress,
	IPAddress,
	CreditCardNumber,
	USSocialSecurityNumber,
	CanadianSIN,
	PhoneNumber,
	StreetAddress,
	Zipcode,
	CanadianPostalCode,
	Names,
	Digits,
}

// BuiltIn describes one of the library-provided redactors.
type BuiltIn struct {
	// Name is the key used to refer to the redactor in configuration.
	Name string

	// Placeholder is the token substituted for a match when no override is configured.
	Placeholder string

	build func(replace string) Redactor
}

// New returns a redactor for this built-in that substitutes replace for every match. An empty replace means the
// built-in's default Placeholder.
func (b BuiltIn) New(replace string) Redactor {
	if replace == "" {
		replace = b.Placeholder
	}
	return b.build(replace)
}

// BuiltIns returns every built-in redactor in canonical order. The order is fixed; callers may only choose which
// built-ins are enabled.
func BuiltIns() []BuiltIn {
	out := make([]BuiltIn, len(canonicalOrder))
	for i, name := range canonicalOrder {
		out[i], _ = LookupBuiltIn(name)
	}
	return out
}

// LookupBuiltIn finds a built-in redactor by name.
func LookupBuiltIn(name string) (BuiltIn, bool) {
	if name == Names {
		return BuiltIn{
			Name:        Names,
			Placeholder: DefaultNamePlaceholder,
			build: func(replace string) Redactor {
				return NewNameRedactor(replace)
			},
		}, true
	}

	re, ok := builtInRegexpByID[name]
	if !ok {
		return BuiltIn{}, false
	}
	return BuiltIn{
		Name:        name,
		Placeholder: placeholderFor(name),
		build: func(replace string) Redactor {
			return NewLiteralRegexRedactor(re, replace)
		},
	}, true
}

func placeholderFor(name string) string {
	return strings.ToUpper(name)
}
