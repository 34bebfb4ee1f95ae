// Package cliout formats output for the autoattach subcommands.
//
// Two formats are supported: the default human-readable text and JSON for
// scripting. Print takes both the data and a formatter so each command writes
// its output once:
//
//	err := cliout.Print(rows, func() {
//	    cliout.Table([]string{"PID", "Port"}, tableRows)
//	})
//
// Colour is enabled only when stdout is a terminal and NO_COLOR is unset.
// On legacy Windows consoles symbols fall back to ASCII.
package cliout
