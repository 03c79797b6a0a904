// Package chefnodes lists the nodes registered with a chef server
package chefnodes

import (
	"context"
	"fmt"

	"github.com/go-chef/chef"
	"github.com/re-pronin/reddalert/lib"
	"github.com/sirupsen/logrus"
)

const nodeIndex = "node"

// Searcher is the part of the chef search api used here
type Searcher interface {
	Exec(idx, statement string) (chef.SearchResult, error)
}

// Source fetches chef nodes via search
type Source struct {
	s   Searcher
	log logrus.FieldLogger
}

// New builds a *Source around a searcher
func New(s Searcher, log logrus.FieldLogger) *Source {
	return &Source{s: s, log: log}
}

// NewFromConfig builds a chef api client from cfg, which must already
// have its client key resolved
func NewFromConfig(cfg *lib.Config, log logrus.FieldLogger) (*Source, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	client, err := chef.NewClient(&chef.Config{
		Name:    cfg.ClientName,
		Key:     cfg.ClientKey,
		BaseURL: cfg.ChefServerURL,
		SkipSSL: cfg.SkipSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build chef client: %w", err)
	}

	return New(client.Search, log), nil
}

// FetchNodes runs the node search and decodes every row it can. Rows
// that are not json objects are skipped.
func (src *Source) FetchNodes(ctx context.Context, query string) ([]*lib.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := src.s.Exec(nodeIndex, query)
	if err != nil {
		return nil, err
	}

	nodes := []*lib.Node{}
	skipped := 0
	for _, row := range res.Rows {
		node, ok := decodeRow(row)
		if !ok {
			skipped++
			continue
		}
		nodes = append(nodes, node)
	}

	log := src.log.WithFields(logrus.Fields{
		"query": query,
		"total": res.Total,
		"rows":  len(res.Rows),
	})
	if skipped > 0 {
		log.WithField("skipped", skipped).Warn("skipped undecodable chef rows")
	}
	log.Debug("fetched chef nodes")

	return nodes, nil
}

func decodeRow(row interface{}) (*lib.Node, bool) {
	attrs, ok := row.(map[string]interface{})
	if !ok {
		return nil, false
	}

	node := &lib.Node{}
	if name, ok := attrs["name"].(string); ok {
		node.Name = name
	}
	if automatic, ok := attrs["automatic"].(map[string]interface{}); ok {
		node.Automatic = automatic
	}

	return node, true
}
