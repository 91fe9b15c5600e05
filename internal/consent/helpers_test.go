package consent

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/wso2/openbanking-berlin-consent/internal/system/database/provider"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores/mocks"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type mockRegistry struct {
	registry *stores.StoreRegistry
	consents *mocks.MockConsentStore
	auths    *mocks.MockAuthResourceStore
	sql      sqlmock.Sqlmock
}

// newMockRegistry wires mocked stores behind a registry whose transactions run on sqlmock.
func newMockRegistry(t *testing.T) *mockRegistry {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	consents := &mocks.MockConsentStore{}
	auths := &mocks.MockAuthResourceStore{}
	client := provider.NewDBClient(sqlx.NewDb(db, "sqlmock"), "mysql")
	return &mockRegistry{
		registry: stores.NewStoreRegistry(client, consents, auths),
		consents: consents,
		auths:    auths,
		sql:      sqlMock,
	}
}

func (m *mockRegistry) expectCommit() {
	m.sql.ExpectBegin()
	m.sql.ExpectCommit()
}

func (m *mockRegistry) expectRollback() {
	m.sql.ExpectBegin()
	m.sql.ExpectRollback()
}

func (m *mockRegistry) assertExpectations(t *testing.T) {
	t.Helper()
	m.consents.AssertExpectations(t)
	m.auths.AssertExpectations(t)
	require.NoError(t, m.sql.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
