package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/5w1tchy/reading-journal/internal/metrics"
)

type Queue interface {
	Push(ctx context.Context, urls ...string) error
	Pop(ctx context.Context, n int) ([]string, error)
}

// Objects is the bucket side of the sweep.
type Objects interface {
	KeyFromURL(url string) (string, bool)
	DeleteObject(ctx context.Context, key string) error
}

// Refs counts the memos that still show an image.
type Refs interface {
	CountImageRefs(ctx context.Context, url string) (int, error)
}

type Sweeper struct {
	Queue   Queue
	Objects Objects
	Refs    Refs
	Batch   int
}

type SweepResult struct {
	Deleted int
	Kept    int
	Skipped int
	Failed  int
}

// Sweep drains the queue once. Images some memo still refers to are kept;
// objects that fail to delete are put back for the next run.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	batch := s.Batch
	if batch <= 0 {
		batch = 100
	}
	var res SweepResult
	var retry []string
	for {
		urls, err := s.Queue.Pop(ctx, batch)
		if err != nil {
			return res, fmt.Errorf("pop image queue: %w", err)
		}
		for _, u := range urls {
			key, ok := s.Objects.KeyFromURL(u)
			if !ok {
				res.Skipped++
				metrics.ImagesCollected.WithLabelValues("skipped").Inc()
				continue
			}
			if s.Refs != nil {
				n, err := s.Refs.CountImageRefs(ctx, u)
				if err != nil {
					logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("count image refs")
					retry = append(retry, u)
					res.Failed++
					metrics.ImagesCollected.WithLabelValues("failed").Inc()
					continue
				}
				if n > 0 {
					res.Kept++
					metrics.ImagesCollected.WithLabelValues("kept").Inc()
					continue
				}
			}
			if err := s.Objects.DeleteObject(ctx, key); err != nil {
				logging.FromContext(ctx).WithError(err).WithField("key", key).Warn("delete image")
				retry = append(retry, u)
				res.Failed++
				metrics.ImagesCollected.WithLabelValues("failed").Inc()
				continue
			}
			res.Deleted++
			metrics.ImagesCollected.WithLabelValues("deleted").Inc()
		}
		if len(urls) < batch || ctx.Err() != nil {
			break
		}
	}
	if err := s.Queue.Push(context.WithoutCancel(ctx), retry...); err != nil {
		return res, fmt.Errorf("requeue images: %w", err)
	}
	return res, nil
}

// StartImageGC runs the sweeper on schedule (cron expression or @every) until ctx
// is done. Overlapping runs are skipped.
func StartImageGC(ctx context.Context, schedule string, s *Sweeper) (*cron.Cron, error) {
	clog := cron.PrintfLogger(logging.Logger().WithField("job", "image-gc"))
	c := cron.New(cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	_, err := c.AddFunc(schedule, func() {
		res, err := s.Sweep(ctx)
		entry := logging.Logger().WithFields(logrus.Fields{
			"job":     "image-gc",
			"deleted": res.Deleted,
			"kept":    res.Kept,
			"skipped": res.Skipped,
			"failed":  res.Failed,
		})
		if err != nil {
			entry.WithError(err).Error("image sweep failed")
			return
		}
		if res != (SweepResult{}) {
			entry.Info("image sweep done")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("image gc schedule %q: %w", schedule, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
