// Package graphdb stores graphs and nodes in Neo4j.
package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// Runner executes one Cypher statement and returns every record, fully buffered.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error)
}

// Executor is the store's view of the database. Read may be served by a
// follower. ExecuteWrite runs work inside a single write transaction which is
// rolled back if work returns an error.
type Executor interface {
	Runner
	Read(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error)
	ExecuteWrite(ctx context.Context, work func(tx Runner) error) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Settings configures the driver.
type Settings struct {
	URI            string
	Username       string
	Password       string
	Database       string
	ConnectTimeout time.Duration
}

// Neo4jExecutor runs statements through the official driver. Each call gets its
// own session which is closed before returning.
type Neo4jExecutor struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jExecutor creates the driver. Transient failures are not retried.
func NewNeo4jExecutor(s Settings) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(s.URI, neo4j.BasicAuth(s.Username, s.Password, ""),
		func(c *config.Config) {
			if s.ConnectTimeout > 0 {
				c.SocketConnectTimeout = s.ConnectTimeout
				c.ConnectionAcquisitionTimeout = s.ConnectTimeout
			}
			c.MaxTransactionRetryTime = 0
		})
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	return &Neo4jExecutor{driver: driver, dbName: s.Database}, nil
}

func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, e.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.dbName),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}
	return result.Records, nil
}

func (e *Neo4jExecutor) Read(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, e.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.dbName),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j read: %w", err)
	}
	return result.Records, nil
}

func (e *Neo4jExecutor) ExecuteWrite(ctx context.Context, work func(tx Runner) error) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.dbName,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(managedTx{tx: tx})
	})
	return err
}

func (e *Neo4jExecutor) VerifyConnectivity(ctx context.Context) error {
	return e.driver.VerifyConnectivity(ctx)
}

func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (t managedTx) Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j statement: %w", err)
	}
	return result.Collect(ctx)
}
