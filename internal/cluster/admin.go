// Package cluster performs privileged administrative SQL against the target
// PostgreSQL cluster's maintenance database on behalf of the provisioning
// state machine.
package cluster

import (
	"context"
	"fmt"
	"time"

	"nidhi/internal/config"
	"nidhi/internal/models"
	"nidhi/internal/observability"

	"github.com/jackc/pgx/v5"
)

// Admin is the set of administrative operations the state machine drives
// against the cluster. Implementations do not retry or roll back; failure
// policy belongs to the caller.
type Admin interface {
	CreateRole(ctx context.Context, name, password string) error
	CreateDatabase(ctx context.Context, name string) error
	GrantAllPrivileges(ctx context.Context, database, role string) error
	TerminateConnections(ctx context.Context, database string) error
	DropDatabase(ctx context.Context, name string) error
	DropRole(ctx context.Context, name string) error
	AlterPassword(ctx context.Context, role, password string) error
}

// Client issues administrative SQL over short-lived maintenance connections.
// Each operation opens its own connection and releases it on every exit path,
// so no elevated session outlives the call that needed it.
type Client struct {
	maintenanceDSN string
	host           string
	port           string
	timeout        time.Duration
}

// NewClient builds a cluster admin client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		maintenanceDSN: buildDSN(cfg.ClusterHost, cfg.ClusterPort, cfg.ClusterUser, cfg.ClusterPassword, cfg.ClusterMaintenanceDB),
		host:           cfg.ClusterHost,
		port:           cfg.ClusterPort,
		timeout:        time.Duration(cfg.ClusterTimeoutSeconds) * time.Second,
	}
}

// buildDSN assembles a key=value connection string with every value quoted,
// so caller-supplied credentials can never smuggle extra keys (a password of
// "x host=evil" must stay a password) and legitimate passwords containing
// spaces or quotes survive parsing.
func buildDSN(host, port, user, password, database string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		quoteDSNValue(host), quoteDSNValue(port), quoteDSNValue(user),
		quoteDSNValue(password), quoteDSNValue(database))
}

// exec runs a single auto-committed statement on a fresh maintenance
// connection, bounded by the configured timeout.
func (c *Client) exec(ctx context.Context, operation, sql string, args ...any) (err error) {
	start := time.Now()
	defer func() { observability.ObserveClusterOperation(operation, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, c.maintenanceDSN)
	if err != nil {
		return models.NewClusterError(operation, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		return models.NewClusterError(operation, err)
	}
	return nil
}

// CreateRole executes CREATE USER with the password bound as a quoted
// literal, never concatenated raw.
func (c *Client) CreateRole(ctx context.Context, name, password string) error {
	ident, err := quoteIdentifier(name)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "create_role",
		fmt.Sprintf("CREATE USER %s WITH PASSWORD %s", ident, quoteLiteral(password)))
}

// CreateDatabase executes CREATE DATABASE for the given name.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	ident, err := quoteIdentifier(name)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "create_database", fmt.Sprintf("CREATE DATABASE %s", ident))
}

// GrantAllPrivileges grants the role full privileges on the database.
func (c *Client) GrantAllPrivileges(ctx context.Context, database, role string) error {
	dbIdent, err := quoteIdentifier(database)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	roleIdent, err := quoteIdentifier(role)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "grant_privileges",
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", dbIdent, roleIdent))
}

// TerminateConnections kills all active backend sessions on the named
// database. The name is a data value in a catalog query here, so it is bound
// as a parameter rather than identifier-quoted. Required before DropDatabase:
// a database with live connections cannot be dropped.
func (c *Client) TerminateConnections(ctx context.Context, database string) error {
	return c.exec(ctx, "terminate_connections",
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		database)
}

// DropDatabase executes DROP DATABASE IF EXISTS for the given name.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	ident, err := quoteIdentifier(name)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "drop_database", fmt.Sprintf("DROP DATABASE IF EXISTS %s", ident))
}

// DropRole executes DROP USER IF EXISTS for the given name.
func (c *Client) DropRole(ctx context.Context, name string) error {
	ident, err := quoteIdentifier(name)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "drop_role", fmt.Sprintf("DROP USER IF EXISTS %s", ident))
}

// AlterPassword changes the role's password, bound as a quoted literal.
func (c *Client) AlterPassword(ctx context.Context, role, password string) error {
	ident, err := quoteIdentifier(role)
	if err != nil {
		return models.NewInvalidInputError(err.Error())
	}
	return c.exec(ctx, "alter_password",
		fmt.Sprintf("ALTER USER %s WITH PASSWORD %s", ident, quoteLiteral(password)))
}
