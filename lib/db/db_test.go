package db

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/re-pronin/reddalert/lib"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lib.RedisNamespace = "reddalert-test"
}

func buildTestPool(t *testing.T) (*redis.Pool, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	pool, err := BuildRedisPool("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool, mr
}

func TestBuildRedisPoolWithPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("swordfish")

	pool, err := BuildRedisPool("redis://:swordfish@" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer pool.Close()

	conn := pool.Get()
	defer conn.Close()
	_, err = conn.Do("PING")
	assert.NoError(t, err)
}

func TestBuildRedisPoolInvalidDatabase(t *testing.T) {
	_, err := BuildRedisPool("redis://localhost:6379/zero")
	assert.Error(t, err)
}

func TestCursorsRoundTrip(t *testing.T) {
	pool, mr := buildTestPool(t)
	log, _ := test.NewNullLogger()
	cursors := NewCursors(pool, log)

	state, err := cursors.Fetch("non_chef")
	require.NoError(t, err)
	assert.True(t, state.Since.IsZero())
	assert.Empty(t, state.FirstSeen)

	since := time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cursors.Store("non_chef", &CursorState{
		Since: since,
		FirstSeen: map[string]time.Time{
			"i-a": since.Add(-time.Hour),
			"i-b": since.Add(time.Minute),
		},
	}))

	assert.True(t, mr.Exists("reddalert-test:cursor:non_chef:since"))

	state, err = cursors.Fetch("non_chef")
	require.NoError(t, err)
	assert.Equal(t, since, state.Since)
	assert.Equal(t, map[string]time.Time{
		"i-a": since.Add(-time.Hour),
		"i-b": since.Add(time.Minute),
	}, state.FirstSeen)

	require.NoError(t, cursors.Store("non_chef", &CursorState{Since: since.Add(time.Hour)}))
	state, err = cursors.Fetch("non_chef")
	require.NoError(t, err)
	assert.Equal(t, since.Add(time.Hour), state.Since)
	assert.Empty(t, state.FirstSeen)
}

func testReport(ID string) *lib.Report {
	return lib.NewReport(&lib.Instance{InstanceID: ID, PublicIPAddress: "1.1.1.1"})
}

func TestReportsStoreReturnsFresh(t *testing.T) {
	pool, _ := buildTestPool(t)
	log, _ := test.NewNullLogger()
	reports := NewReports(pool, lib.PluginName, log)

	fresh, err := reports.Store("pass-1", []*lib.Report{testReport("a"), testReport("b")})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	fresh, err = reports.Store("pass-2", []*lib.Report{testReport("b"), testReport("c")})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "c", fresh[0].InstanceID())

	fresh, err = reports.Store("pass-3", []*lib.Report{})
	require.NoError(t, err)
	assert.Empty(t, fresh)

	fresh, err = reports.Store("pass-4", []*lib.Report{testReport("a")})
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestReportsFetch(t *testing.T) {
	pool, _ := buildTestPool(t)
	log, _ := test.NewNullLogger()
	reports := NewReports(pool, lib.PluginName, log)

	stored, err := reports.Fetch(map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, stored)

	summary, err := reports.LastPass()
	require.NoError(t, err)
	assert.Nil(t, summary)

	_, err = reports.Store("pass-1", []*lib.Report{testReport("a"), testReport("b")})
	require.NoError(t, err)

	stored, err = reports.Fetch(map[string]string{})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "a (1.1.1.1 / )", stored[0].ID)
	assert.Equal(t, "non_chef", stored[0].PluginName)
	assert.Equal(t, "None", stored[0].Details[0].KeyName)

	stored, err = reports.Fetch(map[string]string{"instance_id": "b"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "b", stored[0].InstanceID())

	summary, err = reports.LastPass()
	require.NoError(t, err)
	assert.Equal(t, "pass-1", summary.ID)
	assert.Equal(t, 2, summary.Count)
	assert.NotEmpty(t, summary.Finished)
}
