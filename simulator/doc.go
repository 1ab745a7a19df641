// Package simulator emulates the device side of the memory access
// protocol in process. A Device is a facade.Channel backed by 64 KiB of
// protocol address space, with configurable rejection ranges and
// transaction counters. Script is a lower level channel that replays
// canned responses for framing tests.
package simulator
