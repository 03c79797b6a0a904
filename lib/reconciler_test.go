package lib

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestReconciler(t *testing.T, inv Inventory, nodes NodeSource, cfg ReconcilerConfig) (*Reconciler, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.Level = logrus.DebugLevel

	r, err := NewReconciler(inv, nodes, cfg, log)
	require.NoError(t, err)
	return r, hook
}

func reportIDs(reports []*Report) []string {
	ids := []string{}
	for _, report := range reports {
		ids = append(ids, report.InstanceID())
	}
	return ids
}

func TestNewReconcilerRequiresCollaborators(t *testing.T) {
	log, _ := test.NewNullLogger()

	_, err := NewReconciler(nil, &fakeNodes{}, ReconcilerConfig{}, log)
	assert.Equal(t, errNilInventory, err)

	_, err = NewReconciler(&fakeInventory{}, nil, ReconcilerConfig{}, log)
	assert.Equal(t, errNilNodeSource, err)
}

func TestReconcilerColdStart(t *testing.T) {
	nodes := &fakeNodes{nodes: testNodes()}
	r, _ := buildTestReconciler(t, &fakeInventory{instances: testInstances()}, nodes, ReconcilerConfig{})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	reports := pass.Collect()
	assert.Equal(t, []*Report{
		{
			ID:         "a (1.1.1.1 / 10.1.1.1)",
			PluginName: "non_chef",
			Details: []*ReportDetail{
				{KeyName: "keyName1", SecurityGroups: []string{}, Tags: map[string]string{"Name": "tag1"}},
			},
		},
		{
			ID:         "b (2.1.1.1 / 10.1.1.2)",
			PluginName: "non_chef",
			Details: []*ReportDetail{
				{KeyName: "keyName2", SecurityGroups: []string{}, Tags: map[string]string{"service_name": "foo"}},
			},
		},
	}, reports)

	assert.Equal(t, DefaultNodeQuery, nodes.query)
	assert.Empty(t, r.FirstSeen())

	stats := pass.Stats()
	assert.Equal(t, 4, stats.Instances)
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 2, stats.Registered)
	assert.Equal(t, 2, stats.Reported)
}

func TestReconcilerNeverReportsRegistered(t *testing.T) {
	instances := []*Instance{
		{InstanceID: "pub", PublicIPAddress: "3.1.1.1", PrivateIPAddress: "10.0.0.1"},
		{InstanceID: "priv", PublicIPAddress: "8.8.8.8", PrivateIPAddress: "10.1.1.9"},
		{InstanceID: "none", PrivateIPAddress: "10.1.1.9"},
		{InstanceID: "stray", PublicIPAddress: "8.8.4.4", PrivateIPAddress: "10.0.0.2"},
	}
	r, _ := buildTestReconciler(t, &fakeInventory{instances: instances}, &fakeNodes{nodes: testNodes()}, ReconcilerConfig{})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"stray"}, reportIDs(pass.Collect()))
}

func TestReconcilerExcludedInstances(t *testing.T) {
	inv := &fakeInventory{instances: testInstances(), since: epoch(10)}
	r, _ := buildTestReconciler(t, inv, &fakeNodes{nodes: testNodes()}, ReconcilerConfig{
		ExcludedInstances: []string{"a", "c"},
	})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, reportIDs(pass.Collect()))
	assert.Equal(t, 1, pass.Stats().Excluded)

	_, cached := r.FirstSeen()["a"]
	assert.False(t, cached)
}

func TestReconcilerOneCycleLag(t *testing.T) {
	inv := &fakeInventory{
		since: epoch(10),
		instances: []*Instance{
			{InstanceID: "old", PublicIPAddress: "x", LaunchTime: timePtr(epoch(5))},
			{InstanceID: "fresh", PublicIPAddress: "y", LaunchTime: timePtr(epoch(13))},
			{InstanceID: "cached", PublicIPAddress: "z", LaunchTime: timePtr(epoch(13))},
		},
	}
	r, _ := buildTestReconciler(t, inv, &fakeNodes{nodes: testNodes()}, ReconcilerConfig{
		FirstSeen: map[string]time.Time{"cached": epoch(8)},
	})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "cached"}, reportIDs(pass.Collect()))
	assert.Equal(t, 1, pass.Stats().Deferred)
	assert.Equal(t, epoch(13), r.FirstSeen()["fresh"])

	inv.since = epoch(13)
	pass, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "fresh", "cached"}, reportIDs(pass.Collect()))
}

func TestReconcilerIdempotent(t *testing.T) {
	inv := &fakeInventory{instances: testInstances(), since: epoch(10)}
	r, _ := buildTestReconciler(t, inv, &fakeNodes{nodes: testNodes()}, ReconcilerConfig{})

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	firstReports := first.Collect()

	second, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, firstReports, second.Collect())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReconcilerFetchFailures(t *testing.T) {
	boom := fmt.Errorf("boom")

	for _, tc := range []struct {
		name   string
		inv    *fakeInventory
		nodes  *fakeNodes
		source string
	}{
		{"instances", &fakeInventory{err: boom, since: epoch(10)}, &fakeNodes{nodes: testNodes()}, "instances"},
		{"nodes", &fakeInventory{instances: testInstances(), since: epoch(10)}, &fakeNodes{err: boom}, "nodes"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := buildTestReconciler(t, tc.inv, tc.nodes, ReconcilerConfig{
				FirstSeen: map[string]time.Time{"f": epoch(8)},
			})

			pass, err := r.Run(context.Background())
			assert.Nil(t, pass)
			require.Error(t, err)
			assert.True(t, errors.Is(err, boom))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.source, fe.Source)

			assert.Equal(t, map[string]time.Time{"f": epoch(8)}, r.FirstSeen())
		})
	}
}

func TestReconcilerLazyEarlyStop(t *testing.T) {
	inv := &fakeInventory{
		since: epoch(10),
		instances: []*Instance{
			{InstanceID: "one", PublicIPAddress: "x", LaunchTime: timePtr(epoch(5))},
			{InstanceID: "two", PublicIPAddress: "y", LaunchTime: timePtr(epoch(20))},
			{InstanceID: "three", PublicIPAddress: "z", LaunchTime: timePtr(epoch(6))},
		},
	}
	r, _ := buildTestReconciler(t, inv, &fakeNodes{}, ReconcilerConfig{})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	for report := range pass.Reports() {
		assert.Equal(t, "one", report.InstanceID())
		break
	}

	firstSeen := r.FirstSeen()
	assert.Contains(t, firstSeen, "one")
	assert.NotContains(t, firstSeen, "two")
	assert.NotContains(t, firstSeen, "three")
	assert.Equal(t, 1, pass.Stats().Reported)
}

func TestPassIsSingleUse(t *testing.T) {
	r, _ := buildTestReconciler(t, &fakeInventory{instances: testInstances()}, &fakeNodes{nodes: testNodes()}, ReconcilerConfig{})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, pass.Collect(), 2)
	assert.Empty(t, pass.Collect())
}

func TestReconcilerSkipsMalformedRecords(t *testing.T) {
	instances := []*Instance{
		nil,
		{PublicIPAddress: "7.7.7.7"},
		{InstanceID: "ok", PublicIPAddress: "7.7.7.8"},
	}
	nodes := append(testNodes(), nil)
	r, hook := buildTestReconciler(t, &fakeInventory{instances: instances}, &fakeNodes{nodes: nodes}, ReconcilerConfig{})

	pass, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, reportIDs(pass.Collect()))
	stats := pass.Stats()
	assert.Equal(t, 2, stats.Malformed)
	assert.Equal(t, 1, stats.SkippedNodes)

	warned := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "skipped malformed chef nodes" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestReconcilerCustomNodeQuery(t *testing.T) {
	nodes := &fakeNodes{}
	r, _ := buildTestReconciler(t, &fakeInventory{}, nodes, ReconcilerConfig{NodeQuery: "chef_environment:prod"})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "chef_environment:prod", nodes.query)
}
