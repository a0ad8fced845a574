package database

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Order rows outlive the catalog rows they were built from, so the line
// item tables must survive menu edits: option snapshots follow their item
// on delete, while catalog references only null out.
func TestSchemaOrderSnapshotForeignKeys(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "db_schema.sql"))
	require.NoError(t, err)
	schema := string(content)

	assertFK := func(pattern string, description string) {
		t.Helper()
		matched, err := regexp.MatchString(pattern, schema)
		require.NoError(t, err)
		assert.True(t, matched, description)
	}

	assertFK(`order_item_id\s+BIGINT NOT NULL REFERENCES order_items\(id\) ON DELETE CASCADE`,
		"deleting an order item must take its option rows with it")
	assertFK(`menu_item_id BIGINT REFERENCES menu_items\(id\) ON DELETE SET NULL`,
		"deleting a menu item must not break past orders")
	assertFK(`option_id\s+BIGINT REFERENCES options\(id\) ON DELETE SET NULL`,
		"deleting an option must not break past order item options")
}
