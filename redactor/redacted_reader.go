// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	"io"
	"strings"
)

var _ io.Reader = &RedactedReader{}

// RedactedReader contains an input that has already had redactions applied to it. Because it implements the
// io.Reader interface, it can be handed to anything that consumes a stream, including another call to RedactReader.
type RedactedReader struct {
	reader io.Reader
}

func (rr RedactedReader) Read(p []byte) (int, error) {
	return rr.reader.Read(p)
}

// RedactReader reads all of in, passes it through r, and returns the result as a RedactedReader. Nothing is returned
// if r fails, so callers never see partially-redacted content.
func RedactReader(r Redactor, in io.Reader) (RedactedReader, error) {
	content, err := io.ReadAll(in)
	if err != nil {
		return RedactedReader{}, err
	}

	redacted, err := r.Redact(string(content))
	if err != nil {
		return RedactedReader{}, err
	}

	return RedactedReader{reader: strings.NewReader(redacted)}, nil
}
