package model

import "github.com/wso2/openbanking-berlin-consent/internal/sca"

// Link relation names
const (
	LinkSelf                           = "self"
	LinkStatus                         = "status"
	LinkScaOAuth                       = "scaOAuth"
	LinkScaStatus                      = "scaStatus"
	LinkSelectAuthenticationMethod     = "selectAuthenticationMethod"
	LinkStartAuthWithPsuIdentification = "startAuthorisationWithPsuIdentification"
	LinkStartAuthWithMethodSelection   = "startAuthorisationWithAuthenticationMethodSelection"
)

const (
	authorisationsPathSegment             = "/authorisations"
	cancellationAuthorisationsPathSegment = "/cancellation-authorisations"
)

// Link is a hypermedia reference.
type Link struct {
	Href string `json:"href"`
}

// Links is the Berlin Group _links object.
type Links map[string]Link

// ResourcePath returns the path of a consent resource under basePath.
func ResourcePath(basePath, consentID string) string {
	return basePath + "/" + consentID
}

// AuthorisationsPath returns the collection path for auth resources of authType.
func AuthorisationsPath(resourcePath string, cancellation bool) string {
	if cancellation {
		return resourcePath + cancellationAuthorisationsPathSegment
	}
	return resourcePath + authorisationsPathSegment
}

// InitiationLinks builds the links of an initiation response.
func InitiationLinks(basePath, consentID, authID string, explicit bool, res sca.Result, oauthMetadata string) Links {
	self := ResourcePath(basePath, consentID)
	links := Links{
		LinkSelf:   {Href: self},
		LinkStatus: {Href: self + "/status"},
	}

	if explicit {
		start := AuthorisationsPath(self, false)
		switch {
		case res.ApproachName() == string(sca.ApproachRedirect):
			links[LinkStartAuthWithPsuIdentification] = Link{Href: start}
		case len(res.Methods) > 1:
			links[LinkStartAuthWithMethodSelection] = Link{Href: start}
		}
		return links
	}

	for k, v := range authorisationLinks(AuthorisationsPath(self, false)+"/"+authID, res, oauthMetadata) {
		links[k] = v
	}
	return links
}

// StartAuthorisationLinks builds the links of a start authorisation response.
func StartAuthorisationLinks(authResourcePath string, res sca.Result, oauthMetadata string) Links {
	return authorisationLinks(authResourcePath, res, oauthMetadata)
}

func authorisationLinks(authResourcePath string, res sca.Result, oauthMetadata string) Links {
	links := Links{}
	switch {
	case res.ApproachName() == string(sca.ApproachRedirect):
		if oauthMetadata != "" {
			links[LinkScaOAuth] = Link{Href: oauthMetadata}
		}
		links[LinkScaStatus] = Link{Href: authResourcePath}
	case len(res.Methods) > 1:
		links[LinkSelectAuthenticationMethod] = Link{Href: authResourcePath}
	default:
		links[LinkScaStatus] = Link{Href: authResourcePath}
	}
	return links
}
