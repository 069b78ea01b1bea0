package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/observability"
	"github.com/noah-isme/gema-overview-api/internal/repository"
)

const (
	defaultUnreadTTL     = 5 * time.Minute
	defaultOldPostWindow = 14 * 24 * time.Hour
)

// ReadTracker owns per-user read state and the unread post counts derived from it.
// Every write to posts or read state must be followed by an invalidation.
type ReadTracker interface {
	UnreadPosts(ctx context.Context, forum models.Forum, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID uint, posts []models.ForumPost) error
	MarkForumRead(ctx context.Context, forumID, userID uint) (int64, error)
	Invalidate(ctx context.Context, forumID, userID uint) error
	InvalidateForum(ctx context.Context, forumID uint) error
	Start(ctx context.Context)
}

// ReadTrackerConfig tunes the unread count cache.
type ReadTrackerConfig struct {
	OldPostWindow time.Duration
	TTL           time.Duration
	Subject       string
}

type unreadKey struct {
	forumID uint
	userID  uint
}

type unreadEntry struct {
	count   int64
	expires time.Time
}

type unreadEvent struct {
	Source  string    `json:"source"`
	ForumID uint      `json:"forum_id"`
	UserID  uint      `json:"user_id,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

type readTracker struct {
	repo    repository.ForumRepository
	redis   *redis.Client
	nats    *nats.Conn
	subject string
	window  time.Duration
	ttl     time.Duration
	logger  zerolog.Logger
	nodeID  string
	now     func() time.Time

	mu    sync.Mutex
	local map[unreadKey]unreadEntry
	// generations counts invalidations per forum; a count computed under an older generation is not cached.
	generations map[uint]uint64
}

// NewReadTracker constructs the read tracker. redisClient and natsConn are optional.
func NewReadTracker(repo repository.ForumRepository, redisClient *redis.Client, natsConn *nats.Conn, cfg ReadTrackerConfig, logger zerolog.Logger) ReadTracker {
	return newReadTracker(repo, redisClient, natsConn, cfg, logger)
}

func newReadTracker(repo repository.ForumRepository, redisClient *redis.Client, natsConn *nats.Conn, cfg ReadTrackerConfig, logger zerolog.Logger) *readTracker {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultUnreadTTL
	}
	if cfg.OldPostWindow <= 0 {
		cfg.OldPostWindow = defaultOldPostWindow
	}

	return &readTracker{
		repo:    repo,
		redis:   redisClient,
		nats:    natsConn,
		subject: cfg.Subject,
		window:  cfg.OldPostWindow,
		ttl:     cfg.TTL,
		logger:  logger.With().Str("component", "read_tracker").Logger(),
		nodeID:  uuid.NewString(),
		now:     time.Now,
		local:   make(map[unreadKey]unreadEntry),

		generations: make(map[uint]uint64),
	}
}

func (t *readTracker) Start(ctx context.Context) {
	if t.nats == nil || t.subject == "" {
		return
	}

	sub, err := t.nats.Subscribe(t.subject, func(msg *nats.Msg) {
		t.handleEvent(msg.Data)
	})
	if err != nil {
		t.logger.Error().Err(err).Str("subject", t.subject).Msg("failed to subscribe to unread invalidation subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			t.logger.Warn().Err(err).Msg("failed to drain unread invalidation subscription")
		}
	}()
}

func (t *readTracker) UnreadPosts(ctx context.Context, forum models.Forum, userID uint) (int64, error) {
	key := unreadKey{forumID: forum.ID, userID: userID}
	now := t.now()

	t.mu.Lock()
	entry, ok := t.local[key]
	generation := t.generations[forum.ID]
	t.mu.Unlock()
	if ok && now.Before(entry.expires) {
		observability.UnreadCache().WithLabelValues("local", "hit").Inc()
		return entry.count, nil
	}
	observability.UnreadCache().WithLabelValues("local", "miss").Inc()

	if count, ok := t.readShared(ctx, key); ok {
		t.storeLocalAt(key, count, now, generation)
		return count, nil
	}

	count, err := t.repo.CountUnread(ctx, forum.ID, userID, now.Add(-t.window))
	if err != nil {
		return 0, fmt.Errorf("count unread posts: %w", err)
	}

	if !t.storeLocalAt(key, count, now, generation) {
		return count, nil
	}
	t.writeShared(ctx, key, count)
	if t.generation(key.forumID) != generation {
		t.dropShared(ctx, key)
	}
	return count, nil
}

func (t *readTracker) MarkRead(ctx context.Context, userID uint, posts []models.ForumPost) error {
	if len(posts) == 0 {
		return nil
	}
	if err := t.repo.MarkPostsRead(ctx, userID, posts, t.now()); err != nil {
		return err
	}

	forums := make(map[uint]struct{})
	for _, post := range posts {
		forums[post.ForumID] = struct{}{}
	}
	for forumID := range forums {
		if err := t.Invalidate(ctx, forumID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (t *readTracker) MarkForumRead(ctx context.Context, forumID, userID uint) (int64, error) {
	now := t.now()
	marked, err := t.repo.MarkForumRead(ctx, forumID, userID, now.Add(-t.window), now)
	if err != nil {
		return 0, err
	}
	if err := t.Invalidate(ctx, forumID, userID); err != nil {
		return marked, err
	}
	return marked, nil
}

func (t *readTracker) Invalidate(ctx context.Context, forumID, userID uint) error {
	key := unreadKey{forumID: forumID, userID: userID}
	t.mu.Lock()
	delete(t.local, key)
	t.generations[forumID]++
	t.mu.Unlock()
	observability.UnreadInvalidations().WithLabelValues("user", "local").Inc()

	if t.redis != nil {
		if err := t.redis.Del(ctx, redisUnreadKey(key)).Err(); err != nil {
			return fmt.Errorf("invalidate shared unread count: %w", err)
		}
	}

	t.publish(unreadEvent{ForumID: forumID, UserID: userID})
	return nil
}

func (t *readTracker) InvalidateForum(ctx context.Context, forumID uint) error {
	t.dropLocalForum(forumID)
	observability.UnreadInvalidations().WithLabelValues("forum", "local").Inc()

	if t.redis != nil {
		index := redisForumIndexKey(forumID)
		members, err := t.redis.SMembers(ctx, index).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("load unread index: %w", err)
		}

		keys := make([]string, 0, len(members)+1)
		for _, member := range members {
			userID, err := strconv.ParseUint(member, 10, 64)
			if err != nil {
				continue
			}
			keys = append(keys, redisUnreadKey(unreadKey{forumID: forumID, userID: uint(userID)}))
		}
		keys = append(keys, index)

		if err := t.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate shared unread counts: %w", err)
		}
	}

	t.publish(unreadEvent{ForumID: forumID})
	return nil
}

// storeLocalAt caches count only if the forum was not invalidated since generation was read.
func (t *readTracker) storeLocalAt(key unreadKey, count int64, now time.Time, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generations[key.forumID] != generation {
		return false
	}
	t.local[key] = unreadEntry{count: count, expires: now.Add(t.ttl)}
	return true
}

func (t *readTracker) generation(forumID uint) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generations[forumID]
}

func (t *readTracker) dropLocalForum(forumID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generations[forumID]++
	for key := range t.local {
		if key.forumID == forumID {
			delete(t.local, key)
		}
	}
}

func (t *readTracker) readShared(ctx context.Context, key unreadKey) (int64, bool) {
	if t.redis == nil {
		return 0, false
	}

	count, err := t.redis.Get(ctx, redisUnreadKey(key)).Int64()
	switch {
	case err == nil:
		observability.UnreadCache().WithLabelValues("redis", "hit").Inc()
		return count, true
	case errors.Is(err, redis.Nil):
		observability.UnreadCache().WithLabelValues("redis", "miss").Inc()
	default:
		observability.UnreadCache().WithLabelValues("redis", "error").Inc()
		t.logger.Warn().Err(err).Uint("forum_id", key.forumID).Msg("failed to read unread count from redis")
	}
	return 0, false
}

func (t *readTracker) writeShared(ctx context.Context, key unreadKey, count int64) {
	if t.redis == nil {
		return
	}

	index := redisForumIndexKey(key.forumID)
	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, redisUnreadKey(key), count, t.ttl)
	pipe.SAdd(ctx, index, strconv.FormatUint(uint64(key.userID), 10))
	pipe.Expire(ctx, index, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn().Err(err).Uint("forum_id", key.forumID).Msg("failed to cache unread count in redis")
	}
}

func (t *readTracker) dropShared(ctx context.Context, key unreadKey) {
	if t.redis == nil {
		return
	}
	if err := t.redis.Del(ctx, redisUnreadKey(key)).Err(); err != nil {
		t.logger.Warn().Err(err).Uint("forum_id", key.forumID).Msg("failed to drop stale unread count from redis")
	}
}

func (t *readTracker) publish(event unreadEvent) {
	if t.nats == nil || t.subject == "" {
		return
	}

	event.Source = t.nodeID
	event.SentAt = t.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to encode unread invalidation event")
		return
	}
	if err := t.nats.Publish(t.subject, payload); err != nil {
		t.logger.Warn().Err(err).Msg("failed to publish unread invalidation event")
	}
}

func (t *readTracker) handleEvent(payload []byte) {
	var event unreadEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.logger.Warn().Err(err).Msg("invalid unread invalidation payload")
		return
	}

	if event.Source == t.nodeID {
		return
	}

	if event.UserID == 0 {
		t.dropLocalForum(event.ForumID)
		observability.UnreadInvalidations().WithLabelValues("forum", "remote").Inc()
		return
	}

	t.mu.Lock()
	delete(t.local, unreadKey{forumID: event.ForumID, userID: event.UserID})
	t.generations[event.ForumID]++
	t.mu.Unlock()
	observability.UnreadInvalidations().WithLabelValues("user", "remote").Inc()
}

func redisUnreadKey(key unreadKey) string {
	return fmt.Sprintf("forum:unread:%d:%d", key.forumID, key.userID)
}

func redisForumIndexKey(forumID uint) string {
	return fmt.Sprintf("forum:unread:%d:users", forumID)
}
