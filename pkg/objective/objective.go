// Package objective defines the closed set of quality functions a partition
// can be optimised for.
package objective

import (
	"fmt"
	"strings"
)

// Objective is one of CPM, Modularity, RBConfiguration, Significance,
// Surprise or RBER. The set is closed: only this package can add members.
type Objective interface {
	Name() string
	objective()
}

// CPM is the Constant Potts Model
type CPM struct{ Resolution float64 }

// Modularity is Newman-Girvan modularity
type Modularity struct{}

// RBConfiguration is the Reichardt-Bornholdt model with a configuration null model
type RBConfiguration struct{ Resolution float64 }

// RBER is the Reichardt-Bornholdt model with an Erdős-Rényi null model
type RBER struct{ Resolution float64 }

// Significance scores clusters by how unlikely their density is under a random graph
type Significance struct{}

// Surprise scores the partition by how unlikely its internal edge fraction is
type Surprise struct{}

func (CPM) Name() string             { return "cpm" }
func (Modularity) Name() string      { return "modularity" }
func (RBConfiguration) Name() string { return "rbconfiguration" }
func (RBER) Name() string            { return "rber" }
func (Significance) Name() string    { return "significance" }
func (Surprise) Name() string        { return "surprise" }

func (CPM) objective()             {}
func (Modularity) objective()      {}
func (RBConfiguration) objective() {}
func (RBER) objective()            {}
func (Significance) objective()    {}
func (Surprise) objective()        {}

// Names lists the accepted objective names in a stable order
var Names = []string{"cpm", "modularity", "rbconfiguration", "significance", "surprise", "rber"}

// InvalidObjectiveError is returned for an unrecognised objective name
type InvalidObjectiveError struct {
	Name string
}

func (e *InvalidObjectiveError) Error() string {
	return fmt.Sprintf("invalid objective %q (valid: %s)", e.Name, strings.Join(Names, ", "))
}

// Parse resolves an objective name. The resolution is attached only to
// objectives that take one.
func Parse(name string, resolution float64) (Objective, error) {
	switch normalise(name) {
	case "cpm":
		return CPM{Resolution: resolution}, nil
	case "modularity":
		return Modularity{}, nil
	case "rbconfiguration", "rbconfig", "rb":
		return RBConfiguration{Resolution: resolution}, nil
	case "rber":
		return RBER{Resolution: resolution}, nil
	case "significance":
		return Significance{}, nil
	case "surprise":
		return Surprise{}, nil
	}
	return nil, &InvalidObjectiveError{Name: name}
}

// FromKeyword implements the positional command-line keyword: "modularity"
// selects Modularity, anything else falls back to CPM.
func FromKeyword(keyword string, resolution float64) Objective {
	if normalise(keyword) == "modularity" {
		return Modularity{}
	}
	return CPM{Resolution: resolution}
}

// Resolution returns the resolution parameter and whether o uses one
func Resolution(o Objective) (float64, bool) {
	switch v := o.(type) {
	case CPM:
		return v.Resolution, true
	case RBConfiguration:
		return v.Resolution, true
	case RBER:
		return v.Resolution, true
	}
	return 0, false
}

// Validate rejects a nil objective
func Validate(o Objective) error {
	if o == nil {
		return &InvalidObjectiveError{Name: "<none>"}
	}
	return nil
}

func normalise(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}
