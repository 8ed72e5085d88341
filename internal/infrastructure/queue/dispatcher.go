package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/api/metrics"
	"github.com/adamchat/account-service/internal/core/domain"
	"github.com/adamchat/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ResetCodeDelivery is one queued notification.
type ResetCodeDelivery struct {
	Email string
	Code  string
}

// Dispatcher delivers reset codes asynchronously. Deliveries are routed to a
// fixed set of workers by hashing the email, so codes for one address are
// sent in the order they were issued.
type Dispatcher struct {
	workers []chan ResetCodeDelivery
	target  ports.Notifier
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in
// front of target. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, target ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ResetCodeDelivery, numWorkers),
		target:  target,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ResetCodeDelivery, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// SendResetCode enqueues the delivery and returns immediately. A full worker
// buffer is reported as domain.ErrDeliveryFailed rather than blocking the
// request.
func (d *Dispatcher) SendResetCode(_ context.Context, email, code string) error {
	idx := d.shardIndex(email)
	select {
	case d.workers[idx] <- ResetCodeDelivery{Email: email, Code: code}:
		metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return domain.ErrDeliveryFailed
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ResetCodeDelivery) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotifyQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.target.SendResetCode(ctx, job.Email, job.Code); err != nil {
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("email", job.Email).
					Int("worker_id", id).
					Msg("reset code delivery failed")
				continue
			}
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		}
	}
}
