// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"io"

	"github.com/hashicorp/hcredact/redactor"
)

// Apply reads everything from in, redacts it with r and writes the result to w. Nothing is written if redaction
// fails.
func Apply(r redactor.Redactor, w io.Writer, in io.Reader) error {
	rr, err := redactor.RedactReader(r, in)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rr)
	return err
}

// JSON walks a decoded JSON value (maps, slices and scalars as produced by a JSON decoder into an any) and returns a
// copy in which every string is redacted with r. Map keys and non-string scalars are left alone.
func JSON(data any, r redactor.Redactor) (any, error) {
	switch v := data.(type) {
	case string:
		return r.Redact(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			red, err := JSON(val, r)
			if err != nil {
				return nil, err
			}
			out[k] = red
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			red, err := JSON(val, r)
			if err != nil {
				return nil, err
			}
			out[i] = red
		}
		return out, nil
	default:
		return v, nil
	}
}
