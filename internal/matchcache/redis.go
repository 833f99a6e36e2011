package matchcache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Redis is the process-external Cache backend, for a `valet serve`
// deployment that wants the memo to survive a restart or be shared across
// worker processes.
type Redis struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedis builds a Redis-backed cache over an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, ctx: context.Background(), prefix: "valet:matchcache:"}
}

func (r *Redis) valueKey(key Key) string   { return r.prefix + "v:" + key.String() }
func (r *Redis) seqSetKey(seqID string) string { return r.prefix + "seq:" + seqID }

func (r *Redis) Get(key Key) ([]Record, bool) {
	data, err := r.client.Get(r.ctx, r.valueKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (r *Redis) Put(key Key, records []Record) {
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	vk := r.valueKey(key)
	r.client.Set(r.ctx, vk, data, 0)
	r.client.SAdd(r.ctx, r.seqSetKey(key.SeqID), vk)
}

func (r *Redis) Clear(seqID string) {
	setKey := r.seqSetKey(seqID)
	members, err := r.client.SMembers(r.ctx, setKey).Result()
	if err != nil {
		return
	}
	if len(members) > 0 {
		r.client.Del(r.ctx, members...)
	}
	r.client.Del(r.ctx, setKey)
}
