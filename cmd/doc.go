// Package cmd implements the command-line interface for gmailsend.
//
// This package provides the following commands:
//   - send: Build and send an email through the Gmail API
//   - auth: Run the interactive authorization flow and cache the token
//   - version: Display version information
//
// The send command is the default command when no subcommand is specified.
package cmd
