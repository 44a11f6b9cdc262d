// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"io"
	"os"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/command"
	"github.com/hashicorp/hcredact/version"
)

func main() {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	os.Exit(run(os.Args[1:], ui, os.Stderr))
}

// run dispatches args to a subcommand and returns the exit code. Help and version output go to helpWriter.
func run(args []string, ui cli.Ui, helpWriter io.Writer) int {
	c := cli.NewCLI("hcredact", version.GetVersion().FullVersionNumber(false))
	c.Args = args
	c.HelpWriter = helpWriter
	c.Commands = map[string]cli.CommandFactory{
		"redact":  command.RedactCommandFactory(ui),
		"version": command.VersionCommandFactory(ui),
	}

	exitStatus, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitStatus
}
