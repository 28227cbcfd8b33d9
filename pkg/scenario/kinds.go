package scenario

import "fmt"

// Kind is a scripted fault condition with a defined remediation checklist.
type Kind string

const (
	// KindProfileMismatch simulates conflicting charging profile settings
	// that cap power delivery. Resolved by three configuration fixes plus a
	// soft reset, in any order.
	KindProfileMismatch Kind = "charging_profile_mismatch"

	// KindStuckCharging forces the charge point to appear Charging and
	// suppresses remote stop until cleared or escalated via a forced
	// availability change.
	KindStuckCharging Kind = "stuck_charging"

	// KindAuthFailure makes every Authorize request fail until cleared.
	KindAuthFailure Kind = "auth_failure"
)

func (k Kind) String() string {
	return string(k)
}

// ParseKind resolves a scenario name from the administrative interface.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindProfileMismatch, KindStuckCharging, KindAuthFailure:
		return Kind(name), nil
	}

	return "", NewUnknownScenarioError(name)
}

// Descriptions lists the available scenarios for the front door.
func Descriptions() map[string]string {
	return map[string]string{
		KindProfileMismatch.String(): "Complex scenario requiring diagnostic steps and multi-command resolution",
		KindStuckCharging.String():   "Simple scenario: EVSE stays in Charging and ignores stop",
		KindAuthFailure.String():     "Invalid card authorization (card not in whitelist)",
	}
}

// UnknownScenarioError is returned when a caller names a scenario outside
// the known set.
type UnknownScenarioError struct {
	Name string
}

func NewUnknownScenarioError(name string) error {
	return &UnknownScenarioError{Name: name}
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario: %s", e.Name)
}

func IsUnknownScenarioError(e error) bool {
	_, ok := e.(*UnknownScenarioError)
	return ok
}
