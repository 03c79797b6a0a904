package db

import (
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"
)

// CursorState is the per-plugin state that survives restarts
type CursorState struct {
	Since     time.Time            `json:"since"`
	FirstSeen map[string]time.Time `json:"first_seen"`
}

// CursorFetcherStorer defines the interface for fetching and storing
// cursor state
type CursorFetcherStorer interface {
	Fetch(plugin string) (*CursorState, error)
	Store(plugin string, state *CursorState) error
}

// Cursors represents the cursor state collection
type Cursors struct {
	r   *redis.Pool
	log logrus.FieldLogger
}

// NewCursors creates a new *Cursors
func NewCursors(r *redis.Pool, log logrus.FieldLogger) *Cursors {
	return &Cursors{r: r, log: log}
}

// Fetch loads the cursor state of a plugin. A plugin that never
// stored anything gets a zero since and an empty first-seen map.
func (c *Cursors) Fetch(plugin string) (*CursorState, error) {
	conn := c.r.Get()
	defer conn.Close()

	return FetchCursor(conn, plugin)
}

// Store replaces the cursor state of a plugin
func (c *Cursors) Store(plugin string, state *CursorState) error {
	conn := c.r.Get()
	defer conn.Close()

	c.log.WithFields(logrus.Fields{
		"plugin":     plugin,
		"since":      state.Since,
		"first_seen": len(state.FirstSeen),
	}).Debug("storing cursor")

	return StoreCursor(conn, plugin, state)
}

// FetchCursor reads cursor state given a redis conn
func FetchCursor(conn redis.Conn, plugin string) (*CursorState, error) {
	state := &CursorState{FirstSeen: map[string]time.Time{}}

	since, err := redis.Int64(conn.Do("GET", CursorRedisKey(plugin, "since")))
	if err != nil && err != redis.ErrNil {
		return nil, err
	}
	state.Since = decodeTime(since)

	firstSeen, err := redis.Int64Map(conn.Do("HGETALL", CursorRedisKey(plugin, "first_seen")))
	if err != nil {
		return nil, err
	}

	for ID, n := range firstSeen {
		state.FirstSeen[ID] = decodeTime(n)
	}

	return state, nil
}

// StoreCursor writes cursor state given a redis conn, replacing the
// whole first-seen hash in one transaction
func StoreCursor(conn redis.Conn, plugin string, state *CursorState) error {
	err := conn.Send("MULTI")
	if err != nil {
		return err
	}

	err = conn.Send("SET", CursorRedisKey(plugin, "since"), encodeTime(state.Since))
	if err != nil {
		conn.Do("DISCARD")
		return err
	}

	firstSeenKey := CursorRedisKey(plugin, "first_seen")
	err = conn.Send("DEL", firstSeenKey)
	if err != nil {
		conn.Do("DISCARD")
		return err
	}

	if len(state.FirstSeen) > 0 {
		hmSet := []interface{}{firstSeenKey}
		for ID, t := range state.FirstSeen {
			hmSet = append(hmSet, ID, encodeTime(t))
		}

		err = conn.Send("HSET", hmSet...)
		if err != nil {
			conn.Do("DISCARD")
			return err
		}
	}

	_, err = conn.Do("EXEC")
	return err
}
