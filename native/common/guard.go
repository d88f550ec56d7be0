package common

import "errors"

// ErrModulePaused is returned when governance has halted a module's flows.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the governance pause switches consulted before any state
// mutation. Implementations must be side-effect free.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the operation when the module is paused. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed pause set, used by tooling and tests.
type StaticPauses map[string]bool

func (s StaticPauses) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	return s[module]
}
