// Package device is the high-level entry point. A Device combines a Port
// (usually a protocol.Engine), an address space and a pointer translation
// backend, and binds type declarations to device addresses.
//
//	dev, err := device.New(eng, device.DefaultConfig())
//	cfg, err := dev.Declare(cfgT, addrspace.Eeprom, 0x0000, device.Name("cfg"))
//	gain, err := dev.Lookup("cfg.gain")
//
// Named declarations are kept in a variable table so path expressions can
// reach them.
package device
