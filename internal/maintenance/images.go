package maintenance

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/reading-journal/internal/logging"
)

const imageQueueKey = "gc:memo-images"

// ImageQueue is a Redis set of image URLs no memo refers to anymore. A set
// keeps repeated releases of the same URL from piling up.
type ImageQueue struct {
	rdb *redis.Client
}

func NewImageQueue(rdb *redis.Client) *ImageQueue {
	return &ImageQueue{rdb: rdb}
}

// Release queues url for deletion. Failures are logged, not returned: the
// request that released the image has already succeeded.
func (q *ImageQueue) Release(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := q.Push(context.WithoutCancel(ctx), url); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("url", url).Warn("queue released image")
	}
}

func (q *ImageQueue) Push(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	members := make([]any, len(urls))
	for i, u := range urls {
		members[i] = u
	}
	return q.rdb.SAdd(ctx, imageQueueKey, members...).Err()
}

// Pop removes and returns up to n queued URLs.
func (q *ImageQueue) Pop(ctx context.Context, n int) ([]string, error) {
	urls, err := q.rdb.SPopN(ctx, imageQueueKey, int64(n)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return urls, err
}
