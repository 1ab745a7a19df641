package trace

import (
	"fmt"
	"time"
)

// Op is the wire command of a transaction.
type Op uint8

const (
	OpGet Op = 1
	OpSet Op = 2
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "GET"
	case OpSet:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// Outcome is how a transaction ended.
type Outcome uint8

const (
	OutcomeAck Outcome = iota
	OutcomeNack
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ACK"
	case OutcomeNack:
		return "NACK"
	case OutcomeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is one wire transaction. CBOR encoding uses integer keys.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// Engine identifies the protocol engine instance (UUID).
	Engine string `cbor:"2,keyasint"`

	// Seq numbers transactions per engine, starting at 1.
	Seq uint64 `cbor:"3,keyasint"`

	Op      Op     `cbor:"4,keyasint"`
	Address uint16 `cbor:"5,keyasint"`
	Length  int    `cbor:"6,keyasint"`

	// Data holds the payload sent (SET) or received (GET).
	Data []byte `cbor:"7,keyasint,omitempty"`

	Outcome  Outcome       `cbor:"8,keyasint"`
	Error    string        `cbor:"9,keyasint,omitempty"`
	Duration time.Duration `cbor:"10,keyasint"`
}

func (e Event) String() string {
	s := fmt.Sprintf("#%d %s 0x%04X/%d %s", e.Seq, e.Op, e.Address, e.Length, e.Outcome)
	if len(e.Data) > 0 {
		s += fmt.Sprintf(" % X", e.Data)
	}
	if e.Error != "" {
		s += " " + e.Error
	}
	return s
}

// Recorder receives transaction events.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event)

func (f RecorderFunc) Record(e Event) { f(e) }
