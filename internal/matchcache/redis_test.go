package matchcache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(client), mr
}

func TestRedisGetPutClear(t *testing.T) {
	c, _ := newTestRedis(t)
	k := Key{SeqID: "doc1", Op: "matches", Name: "fruit", Start: 2, End: -1}
	if _, ok := c.Get(k); ok {
		t.Fatalf("expected miss before Put")
	}
	recs := []Record{{Name: "fruit", Begin: 2, End: 3, Kind: "fa"}}
	c.Put(k, recs)
	got, ok := c.Get(k)
	if !ok || len(got) != 1 || got[0].End != 3 {
		t.Fatalf("expected cached record back, got %+v ok=%v", got, ok)
	}
	c.Clear("doc1")
	if _, ok := c.Get(k); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestRedisClearIsolatesBySeqID(t *testing.T) {
	c, _ := newTestRedis(t)
	k1 := Key{SeqID: "doc1", Op: "scan", Name: "x", End: -1}
	k2 := Key{SeqID: "doc2", Op: "scan", Name: "x", End: -1}
	c.Put(k1, []Record{{Name: "x"}})
	c.Put(k2, []Record{{Name: "x"}})
	c.Clear("doc1")
	if _, ok := c.Get(k1); ok {
		t.Fatalf("expected doc1 entry cleared")
	}
	if _, ok := c.Get(k2); !ok {
		t.Fatalf("expected doc2 entry to survive doc1's Clear")
	}
}
