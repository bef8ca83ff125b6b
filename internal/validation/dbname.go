// Package validation contains input validation for provisioning requests.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLength is the PostgreSQL identifier length limit in bytes.
const MaxIdentifierLength = 63

// derivedUserSuffix is appended to the normalized database name to form the role name.
const derivedUserSuffix = "_user"

// userPrefixLength keeps the derived role name under the identifier limit
// once the suffix is appended.
const userPrefixLength = 50

var databaseNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// reservedDatabaseNames cannot be requested; they collide with cluster or
// template databases.
var reservedDatabaseNames = map[string]struct{}{
	"postgres":  {},
	"template0": {},
	"template1": {},
}

// ValidateDatabaseName checks that a requested database name is usable as a
// PostgreSQL identifier and not reserved.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is required")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("database name must be at most %d bytes", MaxIdentifierLength)
	}
	if !databaseNameRegex.MatchString(name) {
		return fmt.Errorf("database name must start with a lowercase letter and contain only lowercase letters, digits, underscores, and hyphens")
	}
	if _, exists := reservedDatabaseNames[name]; exists {
		return fmt.Errorf("database name %q is reserved", name)
	}
	return nil
}

// DeriveDatabaseUser computes the role name for a database name: hyphens are
// normalized to underscores, the result is truncated to a safe prefix, and a
// fixed suffix is appended. Deterministic and idempotent for a given name.
func DeriveDatabaseUser(databaseName string) string {
	user := strings.ReplaceAll(databaseName, "-", "_")
	if len(user) > userPrefixLength {
		user = user[:userPrefixLength]
	}
	return user + derivedUserSuffix
}
