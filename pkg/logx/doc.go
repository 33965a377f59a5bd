// Package logx is a thin structured-logging layer over zerolog.
//
// It exposes a value-type Logger with closure-style fields so call sites
// stay compact, and a Service that can swap sinks and levels at runtime
// when the config file is reloaded.
package logx
