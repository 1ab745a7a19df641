// Package schema loads device layouts from YAML or TOML files.
//
// A schema carries the address space overrides, the pointer translation
// backend, the serial line, type declarations and the variables to bind:
//
//	backend: xc8
//	emulated_eeprom_base: 0x1F00
//	spaces:
//	  ram: {offset: 0xE000, start: 0x0000, final: 0x0FFF}
//	types:
//	  - name: ab_t
//	    fields:
//	      - {name: a, type: uint8}
//	      - {name: b, type: uint16}
//	variables:
//	  - {name: ab, type: ab_t, memory: ram, address: 0x0100}
//
// Type expressions name a primitive (uint8 ... uint64, int8 ... int64,
// float24), a character buffer (char[8]), a declared struct, an array of
// any of these (uint16[4], ab_t[2][3]) or a pointer with its target memory
// (*ab_t@eeprom).
package schema
