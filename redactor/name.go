// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultNamePlaceholder is substituted for detected names unless a NameRedactor is given another token.
const DefaultNamePlaceholder = "PERSON_NAME"

const (
	greetingPattern = `(^|\.[\s\p{Zs}]+)(dear|hi|hello|greetings|hey|hey there)`
	closingPattern  = `(thx|thanks|thank you|regards|best|[a-z]+ly|[a-z]+ regards|all the best|happy [a-z]+ing|take care|have a [a-z]+ (weekend|night|day))`
)

var (
	// greetingOrClosing finds the phrases that usually sit right before a person's name: a greeting at the start of
	// a line or sentence, or a sign-off with its trailing punctuation, whitespace and dashes. RE2's \s is ASCII only,
	// so Unicode space separators such as NBSP are listed explicitly.
	greetingOrClosing = regexp.MustCompile(`(?im)(((` + greetingPattern + `)|(` + closingPattern + `[\s\p{Zs}]*[,.!]*))[\s\p{Zs}-]*)`)

	// genericName matches, at the very start of its input, one to five capitalized words or initials such as
	// "John Doe", "J. Doe" or "José García", followed by a comma, a period or the end of the line. A carriage return
	// before the line end belongs to the terminator, which is captured so it can be put back after the placeholder.
	//
	// Hyphenated ("Mary-Jane") and apostrophe ("O'Connor") names do not match.
	genericName = regexp.MustCompile(`(?m)\A(\p{Zs}?(\p{Lu}\p{M}*(\p{Ll}\p{M}*)+|\p{Lu}\p{M}*\.)){1,5}([,.]|[,.]?\r?$)`)
)

var _ Redactor = NameRedactor{}

// NameRedactor replaces people's names with a placeholder. It is a heuristic with known gaps rather than a
// natural-language recognizer. Detection runs in two stages, and the order matters because the first stage relies
// on capitalization that the second would destroy:
//
//  1. Names that directly follow a greeting ("Dear", "Hi", ...) or a closing ("Thanks", "Kind regards", ...).
//  2. Any word found in the well-known name dictionary. Neighbouring names separated only by whitespace collapse
//     into a single placeholder.
type NameRedactor struct {
	replaceWith string
	names       map[string]struct{}
}

// NewNameRedactor returns a NameRedactor using the shared well-known name dictionary. An empty replaceWith means
// DefaultNamePlaceholder.
func NewNameRedactor(replaceWith string) NameRedactor {
	if replaceWith == "" {
		replaceWith = DefaultNamePlaceholder
	}
	return NameRedactor{
		replaceWith: replaceWith,
		names:       WellKnownNames(),
	}
}

func (n NameRedactor) Redact(text string) (string, error) {
	if n.replaceWith == "" {
		n = NewNameRedactor("")
	}
	text = n.redactAnchored(text)
	text = n.redactWellKnown(text)
	return text, nil
}

// redactAnchored replaces names that follow a greeting or closing. Every successful substitution shifts offsets, so
// the scan starts over on the rewritten text. A substitution that leaves the text as it was is skipped, which keeps
// the loop finite even when the placeholder itself looks like a name.
func (n NameRedactor) redactAnchored(text string) string {
	for {
		rewritten, changed := n.replaceFirstAnchored(text)
		if !changed {
			return text
		}
		text = rewritten
	}
}

func (n NameRedactor) replaceFirstAnchored(text string) (string, bool) {
	for _, anchor := range greetingOrClosing.FindAllStringIndex(text, -1) {
		start := anchor[1]
		m := genericName.FindStringSubmatchIndex(text[start:])
		if m == nil {
			continue
		}

		// m[8:10] is the terminator group.
		suffix := text[start+m[8] : start+m[9]]
		rewritten := text[:start] + n.replaceWith + suffix + text[start+m[1]:]
		if rewritten != text {
			return rewritten, true
		}
	}
	return text, false
}

// redactWellKnown replaces dictionary names. The text is split on word boundaries so punctuation and whitespace
// stay in their own segments; matches are tracked alongside the segments, so nothing in the input can be confused
// with a pending match.
func (n NameRedactor) redactWellKnown(text string) string {
	segments := splitWords(text)

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(segments); i++ {
		if !n.isName(segments[i]) {
			b.WriteString(segments[i])
			continue
		}

		// Swallow any run of "<whitespace><name>" pairs so "John Smith" becomes one placeholder.
		for i+2 < len(segments) && isBlank(segments[i+1]) && n.isName(segments[i+2]) {
			i += 2
		}
		b.WriteString(n.replaceWith)
	}
	return b.String()
}

func (n NameRedactor) isName(segment string) bool {
	return lookupName(n.names, segment)
}

// splitWords cuts text at every boundary between word and non-word runes. Joining the result gives back text.
func splitWords(text string) []string {
	var segments []string
	start := 0
	prevWord := false
	for i, r := range text {
		word := isWordRune(r)
		if i > 0 && word != prevWord {
			segments = append(segments, text[start:i])
			start = i
		}
		prevWord = word
	}
	if start < len(text) {
		segments = append(segments, text[start:])
	}
	return segments
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isBlank(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
