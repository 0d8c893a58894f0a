package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMembershipMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_lab_memberships.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no lab_memberships migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS lab_memberships",
		"FOREIGN KEY (lab_id) REFERENCES labs(id) ON DELETE CASCADE",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_lab_memberships_lab_user ON lab_memberships (lab_id, user_id)",
		"DROP TABLE IF EXISTS lab_memberships",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
