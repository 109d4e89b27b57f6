// Package redisadapter keeps the signup activity counters in redis sorted
// sets, one per (election, kind, correlation field). It backs the
// sliding-window rate limits when the durable activity table is too slow
// to sit on the hot signup path.
package redisadapter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"civicvote/contexts/participation/voter-signup/domain/entities"
	"civicvote/contexts/participation/voter-signup/ports"
)

// Windows are one minute; keys outlive the longest window by a wide
// margin and then expire on their own.
const keyTTL = 2 * time.Hour

type ActivityLog struct {
	client *redis.Client
}

func NewActivityLog(client *redis.Client) *ActivityLog {
	return &ActivityLog{client: client}
}

// Client builds a redis client from a connection URL.
func Client(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func (l *ActivityLog) Record(ctx context.Context, entry entities.ActivityEntry) error {
	score := float64(entry.CreatedAt.Unix())
	member := redis.Z{Score: score, Member: entry.ActivityID}

	pipe := l.client.TxPipeline()
	if entry.Note != "" {
		key := activityKey(entry.ElectionID, entry.Kind, "note", entry.Note)
		pipe.ZAdd(ctx, key, member)
		pipe.Expire(ctx, key, keyTTL)
	}
	if entry.IPAddress != "" {
		key := activityKey(entry.ElectionID, entry.Kind, "ip", entry.IPAddress)
		pipe.ZAdd(ctx, key, member)
		pipe.Expire(ctx, key, keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *ActivityLog) CountSince(ctx context.Context, electionID, kind string, since time.Time, filter ports.ActivityFilter) (int64, error) {
	var key string
	switch {
	case filter.Note != "":
		key = activityKey(electionID, kind, "note", filter.Note)
	case filter.IPAddress != "":
		key = activityKey(electionID, kind, "ip", filter.IPAddress)
	default:
		return 0, nil
	}
	min := strconv.FormatInt(since.Unix(), 10)
	return l.client.ZCount(ctx, key, min, "+inf").Result()
}

func activityKey(electionID, kind, field, value string) string {
	return fmt.Sprintf("signup:activity:%s:%s:%s:%s", electionID, kind, field, value)
}

var _ ports.ActivityLog = (*ActivityLog)(nil)
