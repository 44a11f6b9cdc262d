// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
)

//go:embed well_known_names.json
var wellKnownNamesJSON []byte

// wellKnownNames is built on first use and never written again, so it is shared by every NameRedactor without
// locking. A hash set rather than one large alternation keeps lookups constant per word.
var wellKnownNames = sync.OnceValue(func() map[string]struct{} {
	set, err := ParseNameList(wellKnownNamesJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded well-known name list is invalid: %s", err))
	}
	return set
})

// WellKnownNames returns the process-wide, read-only set of well-known first and last names. Keys are normalized
// with normalizeName. Callers must not modify the returned map.
func WellKnownNames() map[string]struct{} {
	return wellKnownNames()
}

// IsWellKnownName reports whether word, ignoring case and surrounding whitespace, is in the well-known name set.
func IsWellKnownName(word string) bool {
	return lookupName(WellKnownNames(), word)
}

// lookupName reports whether word, once normalized, is a key of names.
func lookupName(names map[string]struct{}, word string) bool {
	key := normalizeName(word)
	if key == "" {
		return false
	}
	_, ok := names[key]
	return ok
}

// ParseNameList decodes a JSON array of names into a lookup set.
func ParseNameList(data []byte) (map[string]struct{}, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if key := normalizeName(name); key != "" {
			set[key] = struct{}{}
		}
	}
	return set, nil
}

// normalizeName trims, composes (NFC) and lower-cases s so that "José" typed with a combining accent and "JOSÉ"
// share a key.
func normalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToLower(norm.NFC.String(s))
}
