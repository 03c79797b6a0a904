package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/re-pronin/reddalert/lib"
)

// CursorRedisKey provides the key for a piece of cursor state of the
// given plugin
func CursorRedisKey(plugin, part string) string {
	return fmt.Sprintf("%s:cursor:%s:%s", lib.RedisNamespace, plugin, part)
}

// ReportsRedisKey provides the key for a piece of report state of the
// given plugin
func ReportsRedisKey(plugin, part string) string {
	return fmt.Sprintf("%s:reports:%s:%s", lib.RedisNamespace, plugin, part)
}

// BuildRedisPool builds a *redis.Pool given a redis URL yey ☃
func BuildRedisPool(redisURL string) (*redis.Pool, error) {
	u, err := url.Parse(redisURL)
	if err != nil {
		return nil, err
	}

	database := 0
	if path := strings.TrimLeft(u.Path, "/"); path != "" {
		database, err = strconv.Atoi(path)
		if err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %w", path, err)
		}
	}

	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{redis.DialDatabase(database)}
			if u.User != nil {
				if auth, ok := u.User.Password(); ok {
					opts = append(opts, redis.DialPassword(auth))
				}
			}
			return redis.Dial("tcp", u.Host, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
	return pool, nil
}

func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
