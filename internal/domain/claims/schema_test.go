package claims

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

// The status CHECK in the core migration must accept every status the model
// can write, or inserts for legitimate states fail at the database.
func TestMigrationAcceptsAllClaimStatuses(t *testing.T) {
	sql, err := os.ReadFile("../../../migrations/001_core.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	check := extractStatusCheck(t, string(sql), "claims")
	for _, status := range []string{
		StatusDraft, StatusSubmitted, StatusPaid,
		StatusPartiallyPaid, StatusDenied, StatusException,
	} {
		if !strings.Contains(check, "'"+status+"'") {
			t.Errorf("claims status CHECK does not allow %q", status)
		}
	}
}

// extractStatusCheck returns the status CHECK constraint inside the named
// table's CREATE TABLE statement.
func extractStatusCheck(t *testing.T, sql, table string) string {
	t.Helper()
	tableRe := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \(.*?\n\);`)
	stmt := tableRe.FindString(sql)
	if stmt == "" {
		t.Fatalf("no CREATE TABLE for %s in migration", table)
	}
	checkRe := regexp.MustCompile(`(?s)status\s+TEXT[^,]*CHECK \(status IN \(([^)]*)\)\)`)
	m := checkRe.FindStringSubmatch(stmt)
	if m == nil {
		t.Fatalf("no status CHECK in %s table", table)
	}
	return m[1]
}
