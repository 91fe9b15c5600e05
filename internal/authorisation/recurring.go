package authorisation

import (
	"context"

	consentmodel "github.com/wso2/openbanking-berlin-consent/internal/consent/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
)

// expiresOtherRecurringConsents reports whether consent becoming newStatus must retire
// the client's earlier recurring account consents.
func (s *Service) expiresOtherRecurringConsents(consent *consentmodel.Consent, newStatus consentmodel.Status) bool {
	return !s.multipleRecurringConsents &&
		consent.ConsentType == consentmodel.ConsentTypeAccounts &&
		consent.RecurringIndicator &&
		newStatus == consentmodel.StatusValid &&
		consent.CurrentStatus != consentmodel.StatusValid
}

// supersededRecurringConsents finds the client's other valid recurring account consents
// authorised by userID alone.
func (s *Service) supersededRecurringConsents(
	ctx context.Context,
	consent *consentmodel.Consent,
	userID string,
) ([]string, *serviceerror.ServiceError) {
	logger := s.logger.WithContext(ctx)
	if userID == "" {
		return nil, nil
	}

	candidates, err := s.core.SearchRecurringConsents(ctx, consent.ClientID, consentmodel.ConsentTypeAccounts,
		consentmodel.StatusValid)
	if err != nil {
		return nil, s.storeError(logger, err, "failed to search recurring consents")
	}

	var expired []string
	for _, candidate := range candidates {
		if candidate.ConsentID == consent.ConsentID {
			continue
		}
		auths, err := s.core.SearchAuthorizations(ctx, candidate.ConsentID)
		if err != nil {
			return nil, s.storeError(logger, err, "failed to retrieve authorisations")
		}
		// Multi-authorised consents are shared with other PSUs and stay.
		if len(auths) != 1 || auths[0].UserID == nil || *auths[0].UserID != userID {
			continue
		}
		expired = append(expired, candidate.ConsentID)
	}

	if len(expired) > 0 {
		logger.Info("Expiring superseded recurring consents",
			log.String("consent_id", consent.ConsentID),
			log.Any("expired_consent_ids", expired),
		)
	}
	return expired, nil
}
