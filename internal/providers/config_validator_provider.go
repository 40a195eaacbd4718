package providers

import (
	"appero/internal/structures"
	"fmt"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if c.conf.Connectivity.ProbeAddr != "" && c.conf.Connectivity.ProbeInterval <= 0 {
		return fmt.Errorf("invalid config: connectivity.probeInterval must be positive when probeAddr is set")
	}
	return nil
}
