// pkg/checker/capability.go

package checker

import (
	"errors"
	"os/exec"
)

// Capability is the result of probing for an external tool.
type Capability int

const (
	CapabilityPresent Capability = iota
	CapabilityAbsent
	CapabilityError
)

func (c Capability) String() string {
	switch c {
	case CapabilityPresent:
		return "present"
	case CapabilityAbsent:
		return "absent"
	case CapabilityError:
		return "error"
	default:
		return "unknown"
	}
}

// DetectCapability probes PATH for a binary. Absence is an expected state
// on minimal hosts and is distinguished from probe errors so callers can
// decide explicitly instead of special-casing inline.
func DetectCapability(binary string) Capability {
	_, err := exec.LookPath(binary)
	if err == nil {
		return CapabilityPresent
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return CapabilityAbsent
	}
	return CapabilityError
}
