// Package neo4j stores task trees as (:Task) nodes linked child to parent by
// [:HAS_PARENT] relationships.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"task-tracker/pkg/logger"
)

type Config struct {
	URI      string // neo4j://localhost:7687
	Username string
	Password string
	Database string // empty selects the server default
}

func NewDriver(ctx context.Context, cfg Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	logger.Info("Neo4j driver initialized", "uri", cfg.URI, "database", cfg.Database)
	return driver, nil
}

// EnsureSchema creates the id uniqueness constraint and the position index.
func EnsureSchema(ctx context.Context, driver neo4j.DriverWithContext, database string) error {
	statements := []string{
		"CREATE CONSTRAINT task_id_unique IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
		"CREATE INDEX task_status IF NOT EXISTS FOR (t:Task) ON (t.status)",
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})
	defer session.Close(ctx)

	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}
	return nil
}
