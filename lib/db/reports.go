package db

import (
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/re-pronin/reddalert/lib"
	"github.com/sirupsen/logrus"
)

// PassSummary describes the pass that produced the stored reports
type PassSummary struct {
	ID       string `json:"id" redis:"id"`
	Finished string `json:"finished" redis:"finished"`
	Count    int    `json:"count" redis:"count"`
}

// ReportFetcherStorer defines the interface for fetching and storing
// the latest reports
type ReportFetcherStorer interface {
	Fetch(map[string]string) ([]*lib.Report, error)
	Store(passID string, reports []*lib.Report) ([]*lib.Report, error)
	LastPass() (*PassSummary, error)
}

// Reports represents the stored report collection of one plugin
type Reports struct {
	Plugin string
	r      *redis.Pool
	log    logrus.FieldLogger
}

// NewReports creates a new *Reports
func NewReports(r *redis.Pool, plugin string, log logrus.FieldLogger) *Reports {
	return &Reports{Plugin: plugin, r: r, log: log}
}

// Fetch returns the latest reports, optionally filtered by
// "instance_id"
func (rs *Reports) Fetch(f map[string]string) ([]*lib.Report, error) {
	conn := rs.r.Get()
	defer conn.Close()

	return FetchReports(conn, rs.Plugin, f)
}

// Store replaces the latest reports and returns the ones whose
// instance was not in the previous set
func (rs *Reports) Store(passID string, reports []*lib.Report) ([]*lib.Report, error) {
	conn := rs.r.Get()
	defer conn.Close()

	return StoreReports(conn, rs.Plugin, passID, reports, time.Now().UTC())
}

// LastPass returns the summary of the pass that stored the current
// reports, or nil if there is none
func (rs *Reports) LastPass() (*PassSummary, error) {
	conn := rs.r.Get()
	defer conn.Close()

	reply, err := redis.Values(conn.Do("HGETALL", ReportsRedisKey(rs.Plugin, "pass")))
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, nil
	}

	summary := &PassSummary{}
	err = redis.ScanStruct(reply, summary)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// FetchReports reads the latest reports given a redis conn
func FetchReports(conn redis.Conn, plugin string, f map[string]string) ([]*lib.Report, error) {
	reports := []*lib.Report{}

	b, err := redis.Bytes(conn.Do("GET", ReportsRedisKey(plugin, "latest")))
	if err == redis.ErrNil {
		return reports, nil
	}
	if err != nil {
		return nil, err
	}

	collection := &lib.ReportsCollection{}
	err = json.Unmarshal(b, collection)
	if err != nil {
		return nil, err
	}

	for _, report := range collection.Reports {
		if ID, ok := f["instance_id"]; ok && report.InstanceID() != ID {
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// StoreReports replaces the latest reports in a single transaction,
// returning the reports for instances absent from the previous set
func StoreReports(conn redis.Conn, plugin, passID string, reports []*lib.Report, finished time.Time) ([]*lib.Report, error) {
	b, err := json.Marshal(&lib.ReportsCollection{Reports: reports})
	if err != nil {
		return nil, err
	}

	idsKey := ReportsRedisKey(plugin, "ids")

	err = conn.Send("MULTI")
	if err != nil {
		return nil, err
	}

	commands := [][]interface{}{
		{"SMEMBERS", idsKey},
		{"DEL", idsKey},
		{"SET", ReportsRedisKey(plugin, "latest"), b},
		{"HSET", ReportsRedisKey(plugin, "pass"),
			"id", passID,
			"finished", finished.Format(time.RFC3339),
			"count", len(reports)},
	}

	if len(reports) > 0 {
		sAdd := []interface{}{idsKey}
		for _, report := range reports {
			sAdd = append(sAdd, report.InstanceID())
		}
		commands = append(commands, append([]interface{}{"SADD"}, sAdd...))
	}

	for _, cmd := range commands {
		err = conn.Send(cmd[0].(string), cmd[1:]...)
		if err != nil {
			conn.Do("DISCARD")
			return nil, err
		}
	}

	replies, err := redis.Values(conn.Do("EXEC"))
	if err != nil {
		return nil, err
	}

	previous, err := redis.Strings(replies[0], nil)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, ID := range previous {
		seen[ID] = true
	}

	fresh := []*lib.Report{}
	for _, report := range reports {
		if !seen[report.InstanceID()] {
			fresh = append(fresh, report)
		}
	}

	return fresh, nil
}
