package cluster

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	quoted, err := quoteIdentifier("cs101")
	require.NoError(t, err)
	assert.Equal(t, `"cs101"`, quoted)

	quoted, err = quoteIdentifier("cs101_user")
	require.NoError(t, err)
	assert.Equal(t, `"cs101_user"`, quoted)
}

func TestQuoteIdentifierRejectsHostileInput(t *testing.T) {
	hostile := []string{
		"",
		"cs101; DROP DATABASE postgres",
		`cs"101`,
		"cs101'--",
		"CS101",
		"1cs101",
		strings.Repeat("a", 64),
	}
	for _, name := range hostile {
		_, err := quoteIdentifier(name)
		assert.Error(t, err, "identifier %q should be rejected", name)
	}
}

// The ListTables path feeds a caller-supplied password into the DSN, so the
// parsed config must keep every value in its own field no matter what the
// password contains.
func TestBuildDSNKeepsValuesInTheirFields(t *testing.T) {
	passwords := []string{
		"hunter2",
		"pw host=evil.example.com dbname=postgres",
		"it's a pass",
		`back\slash`,
		"sslmode=disable user=postgres",
	}
	for _, pw := range passwords {
		dsn := buildDSN("db.example.edu", "5432", "cs101_user", pw, "cs101")
		cfg, err := pgx.ParseConfig(dsn)
		require.NoError(t, err, "password %q", pw)
		assert.Equal(t, "db.example.edu", cfg.Host, "password %q", pw)
		assert.EqualValues(t, 5432, cfg.Port, "password %q", pw)
		assert.Equal(t, "cs101_user", cfg.User, "password %q", pw)
		assert.Equal(t, "cs101", cfg.Database, "password %q", pw)
		assert.Equal(t, pw, cfg.Password, "password %q", pw)
	}
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `'hunter2'`, quoteLiteral("hunter2"))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
	assert.Equal(t, `''' OR ''1''=''1'`, quoteLiteral(`' OR '1'='1`))
	assert.Equal(t, ` E'a\\b'`, quoteLiteral(`a\b`))
	assert.Equal(t, ` E'''\\'`, quoteLiteral(`'\`))
}
