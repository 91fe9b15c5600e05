package sca

import "github.com/wso2/openbanking-berlin-consent/internal/system/config"

// ApproachKind is the Berlin Group SCA approach.
type ApproachKind string

const (
	ApproachRedirect  ApproachKind = config.ScaApproachRedirect
	ApproachDecoupled ApproachKind = config.ScaApproachDecoupled
	ApproachEmbedded  ApproachKind = config.ScaApproachEmbedded
)

// Approach is a configured SCA approach.
type Approach struct {
	Kind    ApproachKind
	Default bool
}

// Method is a configured SCA method. The JSON form is the Berlin Group authentication object.
type Method struct {
	AuthenticationType    string       `json:"authenticationType"`
	AuthenticationVersion string       `json:"authenticationVersion,omitempty"`
	Identifier            string       `json:"authenticationMethodId"`
	Name                  string       `json:"name,omitempty"`
	Description           string       `json:"explanation,omitempty"`
	MappedApproach        ApproachKind `json:"-"`
	Default               bool         `json:"-"`
}

// Result is the outcome of a resolution.
type Result struct {
	// Approach is nil when no approach could be fixed.
	Approach *Approach
	Methods  []Method
	// Choice is set when the approach is deliberately left open and every method is offered.
	Choice bool

	methodExpected bool
}

// Misconfigured reports whether configuration lacked an approach or method the
// decision required. Callers must treat this as a deployment defect.
func (r Result) Misconfigured() bool {
	if r.Approach == nil && !r.Choice {
		return true
	}
	return r.methodExpected && len(r.Methods) == 0
}

// ApproachName returns the approach kind, or "" when none was fixed.
func (r Result) ApproachName() string {
	if r.Approach == nil {
		return ""
	}
	return string(r.Approach.Kind)
}

// ChosenMethod returns the single selected method, if exactly one was selected
// and the approach is fixed.
func (r Result) ChosenMethod() *Method {
	if r.Choice || len(r.Methods) != 1 {
		return nil
	}
	m := r.Methods[0]
	return &m
}
