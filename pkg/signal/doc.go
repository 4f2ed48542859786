// Package signal defines the immutable envelope that carries commands,
// directives, and outbound events through the agent execution runtime.
//
// Invariants:
// - A Signal is immutable once constructed by New/NewDirective/NewEvent.
// - Type strings follow the three-prefix grammar in Kind.
// - Opts and Instruction.Params/Context normalize through mapstructure
//   so callers may pass either a map or a list of {Key, Value} pairs.
package signal
