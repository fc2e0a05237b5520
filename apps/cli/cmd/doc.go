// Package cmd implements the rester CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the requests of a Restfile, once or in a loop
//   - validate: Load a Restfile and its nested documents without executing
//   - list: Display the setup and main requests of a Restfile
//   - version: Show rester version information
//
// The run command supports looping by count, duration or delay, per
// request statistics, JSON output and a watch mode that re-runs the
// document whenever it changes.
package cmd
