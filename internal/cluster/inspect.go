package cluster

import (
	"context"

	"nidhi/internal/models"

	"github.com/jackc/pgx/v5"
)

// Inspector exposes read-only views of provisioned databases.
type Inspector interface {
	DatabaseSize(ctx context.Context, database string) (string, error)
	ListTables(ctx context.Context, database, user, password string) ([]string, error)
}

// DatabaseSize returns the pretty-printed on-disk size of the named database,
// queried over the maintenance connection.
func (c *Client) DatabaseSize(ctx context.Context, database string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, c.maintenanceDSN)
	if err != nil {
		return "", models.NewClusterError("database_size", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	var size string
	if err := conn.QueryRow(ctx,
		"SELECT pg_size_pretty(pg_database_size($1))", database).Scan(&size); err != nil {
		return "", models.NewClusterError("database_size", err)
	}
	return size, nil
}

// ListTables connects to the provisioned database as its own role, using the
// password supplied by the requester, and lists user-created tables. Elevated
// maintenance credentials are deliberately not used here: the caller proves
// they hold the credential before seeing the schema.
func (c *Client) ListTables(ctx context.Context, database, user, password string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, buildDSN(c.host, c.port, user, password, database))
	if err != nil {
		return nil, models.NewUnauthorizedError("could not connect with the supplied credentials")
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name")
	if err != nil {
		return nil, models.NewClusterError("list_tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, models.NewClusterError("list_tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewClusterError("list_tables", err)
	}
	return tables, nil
}
