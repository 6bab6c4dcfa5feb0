package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSQL(t *testing.T) {
	short := "SELECT * FROM challenges"
	assert.Equal(t, short, truncateSQL(short))

	long := "UPDATE solutions SET embedding = '[" + strings.Repeat("0.1234,", 200) + "]'"
	got := truncateSQL(long)
	assert.LessOrEqual(t, len(got), maxSQLLength)
	assert.Contains(t, got, "...")
	assert.True(t, strings.HasPrefix(got, "UPDATE solutions"))
}
