// Package infra_session_cache keeps sign-in sessions in redis so a
// participant token survives service restarts. Room state is not
// persisted anywhere.
package infra_session_cache

import (
	"time"

	"github.com/go-redis/redis"
)

type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Set(key string, value string, ttl time.Duration) error {
	return d.client.Set(d.fullKey(key), value, ttl).Err()
}

func (d *Driver) Get(key string) (string, error) {
	val, err := d.client.Get(d.fullKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (d *Driver) Delete(key string) error {
	return d.client.Del(d.fullKey(key)).Err()
}

func (d *Driver) fullKey(key string) string {
	if d.key != "" {
		return d.key + ":" + key
	}
	return key
}
