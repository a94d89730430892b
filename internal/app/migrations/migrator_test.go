package migrations

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaDir = "../../../migrations"

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", VersionOf("migrations/001_init.sql"))
	assert.Equal(t, "010", VersionOf("010_add_index_on_x.sql"))
}

func TestPendingFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := PendingFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, files)
}

func readSchema(t *testing.T) string {
	t.Helper()
	files, err := PendingFiles(schemaDir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var sb strings.Builder
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		sb.Write(b)
	}
	return sb.String()
}

// The services rely on these constraints to stay correct under concurrency.
func TestSchemaConstraints(t *testing.T) {
	schema := readSchema(t)

	for _, want := range []string{
		"CONSTRAINT uq_memberships_user_community UNIQUE (user_id, community_id)",
		"CONSTRAINT uq_follows_pair UNIQUE (follower_id, following_id)",
		"CONSTRAINT chk_follows_not_self CHECK (follower_id <> following_id)",
		"CONSTRAINT uq_post_likes_item_user UNIQUE (item_id, user_id)",
		"CONSTRAINT uq_comment_likes_item_user UNIQUE (item_id, user_id)",
		"CONSTRAINT uq_reply_likes_item_user UNIQUE (item_id, user_id)",
		"member_count INTEGER NOT NULL DEFAULT 0 CHECK (member_count >= 0)",
		"message      VARCHAR(255) NOT NULL",
	} {
		assert.Contains(t, schema, want)
	}
}

func TestSchemaCascades(t *testing.T) {
	schema := readSchema(t)

	cascade := regexp.MustCompile(`(?m)^\s*(\w+)\s+BIGINT NOT NULL REFERENCES (\w+)\(id\) ON DELETE CASCADE`)
	refs := map[string]bool{}
	for _, m := range cascade.FindAllStringSubmatch(schema, -1) {
		refs[m[1]+"->"+m[2]] = true
	}
	assert.True(t, refs["post_id->posts"], "comments cascade with their post")
	assert.True(t, refs["comment_id->comments"], "replies cascade with their comment")
	assert.True(t, refs["item_id->replies"], "reply likes cascade with their reply")

	for _, col := range []string{"post_id", "comment_id", "reply_id"} {
		pattern := regexp.MustCompile(col + `\s+BIGINT REFERENCES \w+\(id\) ON DELETE SET NULL`)
		assert.Regexp(t, pattern, schema, "notifications keep their row when %s is deleted", col)
	}
}
