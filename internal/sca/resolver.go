// Package sca selects the SCA approach and methods offered to a TPP.
package sca

import (
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
)

// Resolver holds the immutable SCA configuration. It is safe for concurrent use.
type Resolver struct {
	required   bool
	approaches []Approach
	methods    []Method
}

// NewResolver builds a Resolver from configuration. Entries are copied, so later
// changes to cfg have no effect.
func NewResolver(cfg config.SCAConfig) *Resolver {
	r := &Resolver{required: cfg.Required}
	for _, a := range cfg.GetSupportedScaApproaches() {
		r.approaches = append(r.approaches, Approach{Kind: ApproachKind(a.Name), Default: a.Default})
	}
	for _, m := range cfg.GetSupportedScaMethods() {
		r.methods = append(r.methods, Method{
			AuthenticationType:    m.Type,
			AuthenticationVersion: m.Version,
			Identifier:            m.Identifier,
			Name:                  m.Name,
			Description:           m.Description,
			MappedApproach:        ApproachKind(m.MappedApproach),
			Default:               m.Default,
		})
	}
	return r
}

// ScaRequired returns the deployment-wide SCA requirement.
func (r *Resolver) ScaRequired() bool {
	return r.required
}

// Resolve selects the approach and methods for a request.
//
//   - redirectPreferred true: REDIRECT, plus the REDIRECT-mapped method when SCA is required.
//   - redirectPreferred false: DECOUPLED, analogously.
//   - absent and SCA required: the only method, else the default method, each with its mapped
//     approach; otherwise the approach stays open and every method is offered.
//   - absent and SCA not required: the default approach with no methods.
func (r *Resolver) Resolve(redirectPreferred *bool, scaRequired bool) Result {
	if redirectPreferred != nil {
		kind := ApproachDecoupled
		if *redirectPreferred {
			kind = ApproachRedirect
		}
		res := Result{Approach: r.approach(kind), methodExpected: scaRequired}
		if scaRequired {
			if m := r.methodFor(kind); m != nil {
				res.Methods = []Method{*m}
			}
		}
		return res
	}

	if !scaRequired {
		return Result{Approach: r.defaultApproach()}
	}

	if len(r.methods) == 1 {
		m := r.methods[0]
		return Result{Approach: r.approach(m.MappedApproach), Methods: []Method{m}, methodExpected: true}
	}

	if m := r.defaultMethod(); m != nil {
		return Result{Approach: r.approach(m.MappedApproach), Methods: []Method{*m}, methodExpected: true}
	}

	return Result{Methods: r.allMethods(), Choice: true, methodExpected: true}
}

// Methods returns every configured method.
func (r *Resolver) Methods() []Method {
	return r.allMethods()
}

func (r *Resolver) approach(kind ApproachKind) *Approach {
	for i := range r.approaches {
		if r.approaches[i].Kind == kind {
			a := r.approaches[i]
			return &a
		}
	}
	return nil
}

func (r *Resolver) defaultApproach() *Approach {
	for i := range r.approaches {
		if r.approaches[i].Default {
			a := r.approaches[i]
			return &a
		}
	}
	return nil
}

func (r *Resolver) methodFor(kind ApproachKind) *Method {
	for i := range r.methods {
		if r.methods[i].MappedApproach == kind {
			m := r.methods[i]
			return &m
		}
	}
	return nil
}

func (r *Resolver) defaultMethod() *Method {
	for i := range r.methods {
		if r.methods[i].Default {
			m := r.methods[i]
			return &m
		}
	}
	return nil
}

func (r *Resolver) allMethods() []Method {
	out := make([]Method, len(r.methods))
	copy(out, r.methods)
	return out
}
