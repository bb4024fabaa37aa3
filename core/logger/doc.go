// Package logger is a standardized event logging framework for the shell's
// job lifecycle.
package logger
