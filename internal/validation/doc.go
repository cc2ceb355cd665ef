// Package validation cross-checks agent answers against the tool records
// captured while the answer was produced.
//
// An answer that asserts enumerated team data (list lines, roster language)
// must be backed by at least one tool call for the same subtask that returned
// records. Answers matching a configured safe shape, such as the help listing
// or a self-status report, are exempt. The checks are deliberately narrow:
// anything the validator cannot recognise as a claim passes.
//
// Shapes and claim phrases are configuration. A Watcher reloads them from
// disk while the process runs.
package validation
