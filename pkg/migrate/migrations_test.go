package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/innkeeper-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestReservationsMigrationGuardsRoomRanges(t *testing.T) {
	content := readMigration(t, "create_reservations")
	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS reservations",
		"CHECK (check_out_date > check_in_date)",
		"CREATE INDEX IF NOT EXISTS idx_reservations_room_range ON reservations (room_id, check_in_date, check_out_date)",
		"EXCLUDE USING gist",
		"daterange(check_in_date, check_out_date, '[)') WITH &&",
		"status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')",
		"CREATE TABLE IF NOT EXISTS reservation_history",
		"DROP TABLE IF EXISTS reservations",
	})
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_inventory_items")
	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"CHECK (current_quantity >= 0)",
		"FOREIGN KEY (inventory_item_id) REFERENCES inventory_items(id) ON DELETE CASCADE",
		"CONSTRAINT ux_room_consumption_item UNIQUE (room_id, inventory_item_id)",
		"DROP TABLE IF EXISTS inventory_items",
	})
}

func TestSettingsMigrationSeedsDefaults(t *testing.T) {
	content := readMigration(t, "create_staff_and_settings")
	assertContains(t, content, []string{
		"('deposit_rate', '0.30'",
		"('check_in_time', '14:00'",
		"('check_out_time', '12:00'",
		`{"min_hours_before":168,"refund_percent":100}`,
		"ON CONFLICT (setting_key) DO NOTHING",
	})
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Room Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_room_notes.sql") {
		t.Fatalf("unexpected file name %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}
