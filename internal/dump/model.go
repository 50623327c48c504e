package dump

import (
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
)

// ExecutionData holds the probe hits of one class body during one observation window.
type ExecutionData struct {
	// ID is the fingerprint of the class body.
	ID fingerprint.Fingerprint `json:"id" cbor:"id"`
	// Name is the VM name of the class. It is informational only, the ID identifies the class.
	Name string `json:"name,omitempty" cbor:"name,omitempty"`
	// Probes holds one entry per probe of the class, true if the probe fired.
	Probes []bool `json:"probes" cbor:"probes"`
}

// Label returns the class name if known, the short fingerprint otherwise.
func (d ExecutionData) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID.Short()
}

// CoverageDump is the coverage of one observation window. Dumps with an empty TestID
// were recorded outside of any test.
type CoverageDump struct {
	TestID string          `json:"testId" cbor:"testId"`
	Data   []ExecutionData `json:"data" cbor:"data"`
}
