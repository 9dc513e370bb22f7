package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// MailJob is a single message waiting for delivery.
type MailJob struct {
	To      string
	Subject string
	Body    string
}

// MailDispatcher decouples mail delivery from the request path. Jobs are
// sharded across a fixed set of workers by recipient, so messages to the same
// address are delivered in order. It implements ports.Mailer: Send enqueues
// and returns immediately.
type MailDispatcher struct {
	workers []chan MailJob
	sender  ports.Mailer
	log     zerolog.Logger
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, sender ports.Mailer, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan MailJob, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan MailJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send enqueues a message for background delivery. It never blocks beyond
// channelBuffer capacity and never reports delivery failures to the caller.
func (d *MailDispatcher) Send(_ context.Context, to, subject, body string) error {
	d.workers[d.shardIndex(to)] <- MailJob{To: to, Subject: subject, Body: body}
	metrics.MailsEnqueuedTotal.Inc()
	return nil
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan MailJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sender.Send(ctx, job.To, job.Subject, job.Body); err != nil {
				d.log.Warn().Err(err).
					Str("to", job.To).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
		}
	}
}
