package provider

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbmodel "github.com/wso2/openbanking-berlin-consent/internal/system/database/model"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
)

// DBClientInterface is the query surface used by stores.
type DBClientInterface interface {
	Query(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) ([]dbmodel.Row, error)
	Execute(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) (int64, error)
	BeginTx(ctx context.Context) (dbmodel.TxInterface, error)
	DBType() string
}

// DBClient runs DBQuery objects against a sqlx connection pool.
type DBClient struct {
	db     *sqlx.DB
	dbType string
	logger *log.Logger
}

var _ DBClientInterface = (*DBClient)(nil)

// NewDBClient creates a DBClient for the given database type.
func NewDBClient(db *sqlx.DB, dbType string) *DBClient {
	return &DBClient{
		db:     db,
		dbType: dbType,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient")),
	}
}

// DBType returns the database type the client was created for.
func (c *DBClient) DBType() string {
	return c.dbType
}

// Query runs a select and returns all rows.
func (c *DBClient) Query(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) ([]dbmodel.Row, error) {
	c.logger.WithContext(ctx).Debug("Executing query", log.String("query_id", query.ID))

	rows, err := c.db.QueryxContext(ctx, query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", query.ID, err)
	}
	return dbmodel.ScanRows(rows)
}

// Execute runs a statement and returns the number of affected rows.
func (c *DBClient) Execute(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	c.logger.WithContext(ctx).Debug("Executing statement", log.String("query_id", query.ID))

	result, err := c.db.ExecContext(ctx, query.GetQuery(c.dbType), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", query.ID, err)
	}
	return result.RowsAffected()
}

// BeginTx starts a transaction bound to ctx.
func (c *DBClient) BeginTx(ctx context.Context) (dbmodel.TxInterface, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(ctx, tx, c.dbType), nil
}
