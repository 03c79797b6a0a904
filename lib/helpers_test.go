package lib

import (
	"context"
	"time"
)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func epoch(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

type fakeInventory struct {
	instances []*Instance
	since     time.Time
	err       error
	calls     int
}

func (fi *fakeInventory) FetchInstances(context.Context) ([]*Instance, error) {
	fi.calls++
	if fi.err != nil {
		return nil, fi.err
	}
	return fi.instances, nil
}

func (fi *fakeInventory) Since() time.Time {
	return fi.since
}

type fakeNodes struct {
	nodes []*Node
	err   error
	query string
}

func (fn *fakeNodes) FetchNodes(_ context.Context, query string) ([]*Node, error) {
	fn.query = query
	if fn.err != nil {
		return nil, fn.err
	}
	return fn.nodes, nil
}

func cloudNode(name string, attrs map[string]interface{}) *Node {
	return &Node{Name: name, Automatic: attrs}
}

func testInstances() []*Instance {
	return []*Instance{
		{
			InstanceID: "a", KeyName: strPtr("keyName1"),
			PublicIPAddress: "1.1.1.1", PrivateIPAddress: "10.1.1.1",
			Tags: []Tag{{Key: strPtr("Name"), Value: strPtr("tag1")}, {}},
		},
		{
			InstanceID: "b", KeyName: strPtr("keyName2"),
			PublicIPAddress: "2.1.1.1", PrivateIPAddress: "10.1.1.2",
			Tags: []Tag{{Key: strPtr("service_name"), Value: strPtr("foo")}},
		},
		{
			InstanceID: "c", KeyName: strPtr("keyName3"),
			PublicIPAddress: "3.1.1.1", PrivateIPAddress: "10.1.1.3",
			SecurityGroups: []string{"foobar"},
		},
		{
			InstanceID: "d", KeyName: strPtr("keyName4"),
			PublicIPAddress: "4.1.1.1", PrivateIPAddress: "10.1.1.4",
		},
	}
}

func testNodes() []*Node {
	return []*Node{
		cloudNode("host0", map[string]interface{}{"cloud": map[string]interface{}{"public_ipv4": "3.1.1.1"}}),
		cloudNode("host1", map[string]interface{}{"cloud": map[string]interface{}{"public_ipv4": "4.1.1.1"}}),
		cloudNode("host2", map[string]interface{}{"network": map[string]interface{}{"ipaddress": "10.1.1.9"}}),
		{Name: "host3"},
	}
}
