package cluster

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// identifierRegex matches names already normalized by the validation layer.
// Anything else is rejected outright rather than escaped, so a hostile name
// can never reach an administrative statement.
var identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

const maxIdentifierBytes = 63

// quoteIdentifier validates name as a PostgreSQL identifier and returns its
// quoted form for interpolation into DDL.
func quoteIdentifier(name string) (string, error) {
	if name == "" || len(name) > maxIdentifierBytes {
		return "", fmt.Errorf("invalid identifier %q: must be 1-%d bytes", name, maxIdentifierBytes)
	}
	if !identifierRegex.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// quoteLiteral renders s as a PostgreSQL string literal. DDL statements such
// as CREATE USER ... WITH PASSWORD do not accept bind parameters, so secrets
// are quoted here instead of ever being concatenated raw. Single quotes are
// doubled; values containing backslashes use the E'' escape form.
func quoteLiteral(s string) string {
	escaped := strings.ReplaceAll(s, `'`, `''`)
	if strings.Contains(escaped, `\`) {
		escaped = strings.ReplaceAll(escaped, `\`, `\\`)
		return ` E'` + escaped + `'`
	}
	return `'` + escaped + `'`
}

// quoteDSNValue renders v as a single-quoted value in a key=value connection
// string. Backslashes and single quotes are backslash-escaped, the form both
// libpq and pgx parse.
func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return `'` + v + `'`
}
