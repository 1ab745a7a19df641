package memlink

import (
	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/errors"
)

// Env is what a bound link needs to reach the device. It must not change
// once links have been created from it.
type Env struct {
	Port       facade.Port
	Translator addrspace.Translator
	Space      addrspace.Space
}

// NewEnv checks the space and returns an environment.
func NewEnv(port facade.Port, space addrspace.Space, tr addrspace.Translator) (*Env, error) {
	if port == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "nil port")
	}
	if tr == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "nil translator")
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}
	return &Env{Port: port, Space: space, Translator: tr}, nil
}
