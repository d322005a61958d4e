package announce

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisPersister is an alternative to FilePersister for deployments that
// already run Redis as shared state across relay processes (spec.md §6:
// durable backing is implementation-chosen). Each record is stored as a
// JSON value under a per-hash key; like FilePersister, a write failure is
// never propagated as a cache error (spec.md §4.8).
type RedisPersister struct {
	client *redis.Client
	prefix string
}

type redisRecord struct {
	IdentityPublic string `json:"identity_public"`
	AppData        string `json:"app_data"`
	RatchetPublic  string `json:"ratchet_public,omitempty"`
	FirstSeen      int64  `json:"first_seen"`
	LastSeen       int64  `json:"last_seen"`
}

// NewRedisPersister wraps an existing client. prefix namespaces the keys
// this persister writes, so one Redis instance can back several networks.
func NewRedisPersister(client *redis.Client, prefix string) *RedisPersister {
	return &RedisPersister{client: client, prefix: prefix}
}

func (p *RedisPersister) keyFor(hash []byte) string {
	return p.prefix + hex.EncodeToString(hash)
}

// Append upserts the record for hash. Context-less by interface contract
// (Persister.Append); it uses context.Background(), so the round trip has
// no deadline of its own.
func (p *RedisPersister) Append(hash []byte, rec *Record) error {
	rr := redisRecord{
		IdentityPublic: hex.EncodeToString(rec.IdentityPublic),
		AppData:        hex.EncodeToString(rec.AppData),
		FirstSeen:      rec.FirstSeen,
		LastSeen:       rec.LastSeen,
	}
	if rec.RatchetPublic != nil {
		rr.RatchetPublic = hex.EncodeToString(rec.RatchetPublic)
	}
	blob, err := json.Marshal(rr)
	if err != nil {
		return err
	}
	return p.client.Set(context.Background(), p.keyFor(hash), blob, 0).Err()
}

// Load reads back a previously persisted record for hash, for warming a
// fresh Cache from Redis on startup. Returns (nil, false) on a miss.
func (p *RedisPersister) Load(hash []byte) (*Record, bool) {
	blob, err := p.client.Get(context.Background(), p.keyFor(hash)).Bytes()
	if err != nil {
		return nil, false
	}
	var rr redisRecord
	if err := json.Unmarshal(blob, &rr); err != nil {
		return nil, false
	}
	rec := &Record{FirstSeen: rr.FirstSeen, LastSeen: rr.LastSeen}
	rec.IdentityPublic, err = hex.DecodeString(rr.IdentityPublic)
	if err != nil {
		return nil, false
	}
	rec.AppData, err = hex.DecodeString(rr.AppData)
	if err != nil {
		return nil, false
	}
	if rr.RatchetPublic != "" {
		rec.RatchetPublic, err = hex.DecodeString(rr.RatchetPublic)
		if err != nil {
			return nil, false
		}
	}
	return rec, true
}
