package cache

import (
	"context"
	"fmt"
	"time"

	"clipstream/internal/models"
	"clipstream/internal/observability"
)

// Key families. List keys carry their pagination suffix so that
// InvalidateByPrefix on the family prefix clears every page at once.
const (
	UserTTL     = 5 * time.Minute
	ContentTTL  = 10 * time.Minute
	CommentsTTL = 2 * time.Minute
	FollowTTL   = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func VideoKey(videoID uint) string {
	return fmt.Sprintf("video:%d", videoID)
}

func ArticleKey(articleID uint) string {
	return fmt.Sprintf("article:%d", articleID)
}

// CommentsPrefix is the family prefix for all comment pages of one content item.
func CommentsPrefix(ref models.ContentRef) string {
	return fmt.Sprintf("comments:%s:%d:", ref.Type, ref.ID)
}

// CommentsKey identifies one page of a comment listing. parent is 0 for
// top-level comments.
func CommentsKey(ref models.ContentRef, parent uint, page, limit int) string {
	return fmt.Sprintf("%sp%d:page%d:limit%d", CommentsPrefix(ref), parent, page, limit)
}

func FollowersPrefix(userID uint) string {
	return fmt.Sprintf("followers:%d:", userID)
}

func FollowingPrefix(userID uint) string {
	return fmt.Sprintf("following:%d:", userID)
}

func FollowListKey(prefix string, page, limit int) string {
	return fmt.Sprintf("%spage%d:limit%d", prefix, page, limit)
}

const (
	VideosListPrefix   = "videos:"
	ArticlesListPrefix = "articles:"
)

func VideosListKey(page, limit int) string {
	return fmt.Sprintf("%spage%d:limit%d", VideosListPrefix, page, limit)
}

func ArticlesListKey(page, limit int) string {
	return fmt.Sprintf("%spage%d:limit%d", ArticlesListPrefix, page, limit)
}

// Invalidate removes a single key, best-effort.
func Invalidate(ctx context.Context, key string) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		observability.CacheInvalidationFailures.Inc()
	}
}

// InvalidateByPrefix removes every key in a family, best-effort. A failed
// invalidation never fails the mutation that triggered it; stale entries age
// out with their TTL.
func InvalidateByPrefix(ctx context.Context, prefix string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			observability.CacheInvalidationFailures.Inc()
		}
	}
	if err := iter.Err(); err != nil {
		observability.CacheInvalidationFailures.Inc()
	}
}
