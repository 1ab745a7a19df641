// Package addrspace maps device memory kinds onto the single 16-bit
// protocol address space and translates raw pointer values back into
// device addresses.
//
// Each MemoryKind owns a MemoryConfig describing where its slice starts in
// protocol space (Offset) and which device addresses it covers
// (Start..Final). Device ranges of different kinds may overlap; protocol
// ranges may not.
//
// Pointer translation depends on the compiler that built the firmware.
// A Translator implements one compiler's rules, and a Registry selects a
// Translator by backend name:
//
//	space := addrspace.Default()
//	tr, err := addrspace.NewRegistry().New("xc8", space)
//	dev, err := tr.ToDeviceAddress(0x9F10, addrspace.Eeprom) // 0x0010
package addrspace
