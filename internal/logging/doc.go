// Package logging provides structured logging for amangrep.
//
// Normal runs log to stderr at warn level so stdout carries only search
// output. With --debug, every event is also written as JSON to a
// size-rotated file under ~/.amangrep/logs/, which `amangrep logs` can read back.
package logging
