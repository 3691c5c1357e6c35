package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"pagora/internal/models"
	"pagora/internal/repositories"
)

const defaultQueueSize = 64

// DispatcherConfig is the retry policy and sizing for outbound delivery.
type DispatcherConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	Timeout     time.Duration
	QueueSize   int
}

type deliveryJob struct {
	endpoint models.WebhookEndpoint
	event    DomainEvent
	body     []byte
}

// Dispatcher fans domain events out to merchant endpoints. Each endpoint
// gets its own FIFO queue and worker goroutine, so deliveries to one
// endpoint stay ordered while independent endpoints run fully in parallel.
// Delivery is best-effort: exhausted retries are logged and recorded, never
// propagated back to transaction processing.
type Dispatcher struct {
	store  repositories.WebhookStore
	client *http.Client
	cfg    DispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	queues  map[uint]chan deliveryJob
	stopped bool
}

// NewDispatcher creates an outbound dispatcher. Workers spawn lazily, one
// per endpoint, on first delivery.
func NewDispatcher(store repositories.WebhookStore, cfg DispatcherConfig) *Dispatcher {
	if store == nil {
		panic("store is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[uint]chan deliveryJob),
	}
}

// Enqueue queues event for every active endpoint of the owning merchant
// subscribed to its type. It is called after the transaction's storage
// transaction commits, so a slow endpoint can never block money state.
func (d *Dispatcher) Enqueue(ctx context.Context, event DomainEvent) error {
	endpoints, err := d.store.ListActiveEndpoints(ctx, event.MerchantID, event.Type)
	if err != nil {
		return err
	}
	if len(endpoints) == 0 {
		return nil
	}

	body, err := json.Marshal(deliveryPayload{
		EventType:     event.Type,
		TransactionID: event.TransactionID,
		Status:        event.Status,
		Amount:        event.Amount,
		OccurredAt:    event.OccurredAt,
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	for _, ep := range endpoints {
		q, ok := d.queues[ep.ID]
		if !ok {
			q = make(chan deliveryJob, d.cfg.QueueSize)
			d.queues[ep.ID] = q
			d.wg.Add(1)
			go d.worker(q)
		}
		select {
		case q <- deliveryJob{endpoint: ep, event: event, body: body}:
		default:
			log.Printf("dispatcher: queue full for endpoint %d, dropping %s", ep.ID, event.Type)
		}
	}
	return nil
}

// Stop closes the queues, waits for workers to finish their current job and
// cancels any in-flight backoff waits.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker(q chan deliveryJob) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case job, ok := <-q:
			if !ok {
				return
			}
			d.deliver(job)
		}
	}
}

// deliver runs the retry loop for one (endpoint, event) pair. Every attempt
// writes its own delivery row. Before each retry the endpoint is re-read:
// deactivation mid-flight cancels the remaining attempts.
func (d *Dispatcher) deliver(job deliveryJob) {
	backoff := d.cfg.BackoffBase
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			ep, err := d.store.GetEndpoint(d.ctx, job.endpoint.ID)
			if err != nil {
				log.Printf("dispatcher: failed to re-check endpoint %d: %v", job.endpoint.ID, err)
			} else if !ep.Active {
				log.Printf("dispatcher: endpoint %d deactivated, abandoning %s for transaction %s",
					job.endpoint.ID, job.event.Type, job.event.TransactionID)
				return
			}

			select {
			case <-time.After(backoff):
			case <-d.ctx.Done():
				return
			}
			backoff *= 2
			if backoff > d.cfg.MaxBackoff {
				backoff = d.cfg.MaxBackoff
			}
		}

		status, respBody, err := d.post(job)
		delivered := err == nil && status >= 200 && status < 300

		rec := &models.WebhookDelivery{
			EndpointID:     job.endpoint.ID,
			EventType:      job.event.Type,
			TransactionID:  job.event.TransactionID,
			Payload:        job.body,
			Attempt:        attempt,
			ResponseStatus: status,
			ResponseBody:   truncate(respBody, 512),
			Delivered:      delivered,
		}
		if insertErr := d.store.InsertDeliveryAttempt(context.Background(), rec); insertErr != nil {
			log.Printf("dispatcher: failed to record delivery attempt for endpoint %d: %v",
				job.endpoint.ID, insertErr)
		}

		if delivered {
			return
		}
		if err != nil {
			log.Printf("dispatcher: attempt %d to endpoint %d failed: %v", attempt, job.endpoint.ID, err)
		} else {
			log.Printf("dispatcher: attempt %d to endpoint %d got status %d", attempt, job.endpoint.ID, status)
		}
	}

	log.Printf("dispatcher: %v: endpoint %d, event %s, transaction %s, %d attempts",
		ErrDeliveryFailed, job.endpoint.ID, job.event.Type, job.event.TransactionID, d.cfg.MaxAttempts)
}

func (d *Dispatcher) post(job deliveryJob) (int, string, error) {
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, job.endpoint.URL, bytes.NewReader(job.body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeaderName, Sign(job.endpoint.Secret, time.Now().Unix(), job.body))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(b), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
