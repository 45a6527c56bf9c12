package models

import "time"

// PendingCommand is one entry of GET /api/agent/commands. The command text is
// handed to the shell verbatim.
type PendingCommand struct {
	ID      int64  `json:"id"`
	Command string `json:"command"`
}

// CommandResult is the payload sent via POST /api/agent/command-result.
// ExitCode is 0 on success, the process status on a normal non-zero exit and
// 1 when the process could not start, was killed, or timed out.
type CommandResult struct {
	CommandID       int64     `json:"command_id"`
	ExitCode        int       `json:"exit_code"`
	Stdout          string    `json:"stdout"`
	Stderr          string    `json:"stderr"`
	DurationSeconds float64   `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
}
