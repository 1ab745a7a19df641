// Package channel provides facade.Channel implementations for real
// transports: a local serial port, a TCP bridge such as ser2net, and an
// adapter over plain functions.
package channel
