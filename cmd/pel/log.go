package main

import (
	"log/slog"

	"github.com/google/uuid"
)

// invocationLogger returns a logger tagged with a fresh correlation id
// for one CLI invocation, mirroring the teacher's slog.Default() usage
// in cmd/helm/main.go and rir/authz's practice of minting a UUID per
// unit of work (spec.md names no logging requirement for the CLI
// surface itself, since it is "documented for completeness"; this
// follows the teacher's ambient logging discipline anyway).
func invocationLogger(command string) (*slog.Logger, string) {
	id := uuid.NewString()
	return slog.Default().With("command", command, "invocation_id", id), id
}
