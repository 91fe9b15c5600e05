// Package authorisation folds per-PSU authorisation outcomes into consent status changes.
package authorisation

import (
	authmodel "github.com/wso2/openbanking-berlin-consent/internal/authresource/model"
)

// AggregateStatus is the combined outcome of a group of sibling auth resources.
type AggregateStatus string

const (
	AggregateNone                AggregateStatus = "NONE"
	AggregatePartiallyAuthorised AggregateStatus = "PARTIALLY_AUTHORISED"
	AggregateFullyAuthorised     AggregateStatus = "FULLY_AUTHORISED"
	AggregateRejected            AggregateStatus = "REJECTED"
)

// Aggregate combines the statuses of auth resources sharing a consent and auth type.
// A single failure rejects the group; otherwise every resource must be psuAuthenticated
// for full authorisation.
func Aggregate(siblings []authmodel.AuthResource) AggregateStatus {
	if len(siblings) == 0 {
		return AggregateNone
	}

	authenticated := 0
	for _, s := range siblings {
		switch s.AuthStatus {
		case authmodel.ScaStatusFailed:
			return AggregateRejected
		case authmodel.ScaStatusPsuAuthenticated:
			authenticated++
		}
	}

	switch {
	case authenticated == len(siblings):
		return AggregateFullyAuthorised
	case authenticated > 0:
		return AggregatePartiallyAuthorised
	default:
		return AggregateNone
	}
}

// FilterByType returns the resources of authType, preserving order.
func FilterByType(resources []authmodel.AuthResource, authType authmodel.AuthType) []authmodel.AuthResource {
	filtered := make([]authmodel.AuthResource, 0, len(resources))
	for _, r := range resources {
		if r.AuthType == authType {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// withStatus returns a copy of resources with authID's status replaced.
func withStatus(resources []authmodel.AuthResource, authID string, status authmodel.ScaStatus) []authmodel.AuthResource {
	out := make([]authmodel.AuthResource, len(resources))
	copy(out, resources)
	for i := range out {
		if out[i].AuthID == authID {
			out[i].AuthStatus = status
		}
	}
	return out
}
