package stores

import (
	"context"
	"errors"
	"fmt"

	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database/provider"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores/interfaces"
)

// StoreRegistry holds references to all stores in the application so that
// services can compose writes from several stores into one transaction.
type StoreRegistry struct {
	dbClient provider.DBClientInterface

	Consent      interfaces.ConsentStore
	AuthResource interfaces.AuthResourceStore
}

// NewStoreRegistry creates a new store registry with all initialized stores
func NewStoreRegistry(
	dbClient provider.DBClientInterface,
	consentStore interfaces.ConsentStore,
	authResourceStore interfaces.AuthResourceStore,
) *StoreRegistry {
	return &StoreRegistry{
		dbClient:     dbClient,
		Consent:      consentStore,
		AuthResource: authResourceStore,
	}
}

// ExecuteTransaction executes multiple store operations in a single transaction.
// If any operation fails, the transaction is rolled back and the failure returned.
func (r *StoreRegistry) ExecuteTransaction(ctx context.Context, queries []func(tx dbmodel.TxInterface) error) error {
	logger := log.GetLogger().WithContext(ctx)
	logger.Debug("Starting transaction", log.Int("query_count", len(queries)))

	tx, err := r.dbClient.BeginTx(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", log.Error(err))
		return err
	}

	for i, query := range queries {
		if err := query(tx); err != nil {
			logger.Warn("Transaction query failed, rolling back",
				log.Error(err),
				log.Int("failed_query_index", i),
			)
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return errors.Join(err, fmt.Errorf("rollback failed: %w", rollbackErr))
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", log.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Transaction committed successfully", log.Int("query_count", len(queries)))
	return nil
}
