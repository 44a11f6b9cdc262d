// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

// Success indicates a successful command execution.
const Success int = 0

// The following error group is intended for issues within the command's execution.
const (
	// FlagParseError indicates that a command was unable to successfully parse the flags/arguments provided to it.
	FlagParseError int = iota + 16

	// ConfigError indicates that there was an error in the hcredact configuration file or env file.
	ConfigError

	// RunError indicates that redaction failed for one of the inputs.
	RunError

	// OutputError indicates an error writing redacted output.
	OutputError

	// SetupError is returned when the redactor cannot be built from the merged configuration and flags; e.g. -disable
	// names an unknown built-in.
	SetupError
)

// The following error group is intended for issues with the inputs.
const (
	// InputError is returned when an input file cannot be opened or read.
	InputError int = iota + 32

	// DecodeError is returned when -json is set and an input is not a JSON document.
	DecodeError
)
