package redisad

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/domain"
)

const (
	fieldApproved = "approved"
	fieldFeatured = "featured"
)

// Store keeps moderation flags in one Redis hash per review so that several API
// replicas share the same state. Keys carry no TTL.
type Store struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(c *redis.Client) *Store { return &Store{c: c, prefix: "moderation:review:"} }

func (r *Store) key(id int64) string { return r.prefix + strconv.FormatInt(id, 10) }

func (r *Store) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Store) Close() error { return r.c.Close() }

func (r *Store) Get(ctx context.Context, id int64) (domain.ModerationFlags, error) {
	vals, err := r.c.HMGet(ctx, r.key(id), fieldApproved, fieldFeatured).Result()
	if err != nil {
		return domain.ModerationFlags{}, err
	}
	observability.ObserveStore("redis", "get")
	return decodeFlags(vals), nil
}

func (r *Store) GetMany(ctx context.Context, ids []int64) (map[int64]domain.ModerationFlags, error) {
	out := make(map[int64]domain.ModerationFlags, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cmds := make([]*redis.SliceCmd, len(ids))
	_, err := r.c.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HMGet(ctx, r.key(id), fieldApproved, fieldFeatured)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.ObserveStore("redis", "get_many")
	for i, id := range ids {
		out[id] = decodeFlags(cmds[i].Val())
	}
	return out, nil
}

// Set writes the provided fields and reads both back inside one MULTI/EXEC, so
// the returned flags are exactly what this write produced.
func (r *Store) Set(ctx context.Context, id int64, p domain.ModerationPatch) (domain.ModerationFlags, error) {
	key := r.key(id)
	fields := make([]any, 0, 4)
	if p.Approved != nil {
		fields = append(fields, fieldApproved, encodeBool(*p.Approved))
	}
	if p.Featured != nil {
		fields = append(fields, fieldFeatured, encodeBool(*p.Featured))
	}

	var get *redis.SliceCmd
	_, err := r.c.TxPipelined(ctx, func(tx redis.Pipeliner) error {
		if len(fields) > 0 {
			tx.HSet(ctx, key, fields...)
		}
		get = tx.HMGet(ctx, key, fieldApproved, fieldFeatured)
		return nil
	})
	if err != nil {
		return domain.ModerationFlags{}, fmt.Errorf("redis set %s: %w", key, err)
	}
	observability.ObserveStore("redis", "set")
	return decodeFlags(get.Val()), nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// decodeFlags maps an HMGET reply onto flags; missing fields read as false.
func decodeFlags(vals []any) domain.ModerationFlags {
	var st domain.ModerationFlags
	if len(vals) > 0 {
		st.Approved = vals[0] == "1"
	}
	if len(vals) > 1 {
		st.Featured = vals[1] == "1"
	}
	return st
}
