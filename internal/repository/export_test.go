//go:build integration

package repository

// IntegrationStore exposes the shared test database to the external test
// package, which can import the engines built on top of this package.
func IntegrationStore() *PostgresStore {
	return testStore
}
