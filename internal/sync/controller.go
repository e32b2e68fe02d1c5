package sync

import (
	"context"
	"sync"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventAborted   EventType = "aborted"
	EventFailed    EventType = "failed"
)

// Event is one message on the controller's progress stream. Batch carries
// the results of the batch that just finished, so consumers can render
// partial results before the operation ends.
type Event struct {
	Type      EventType
	Processed int
	Total     int
	Batch     []Result
	Message   string
	Err       error
}

const (
	defaultPageSize  = 500
	defaultBatchSize = 25
	eventBufferSize  = 256
)

// Controller drives one whole sync operation: it collects ids (either the
// caller's selection or the full source listing), partitions them into
// batches, runs the Syncer batch by batch and reports progress in between.
// Cancellation is cooperative and observed at batch boundaries only; the
// batch in flight is allowed to finish and its results are kept.
//
// A Controller is good for exactly one operation; the event channel closes
// when the operation reaches a terminal state.
type Controller struct {
	i      *interop.Interop
	source provider.Source
	syncer *Syncer
	typ    entity.Type

	// PageSize is the id-listing page size, tuned for listing throughput.
	// BatchSize is the sync batch size, tuned for per-call latency and
	// progress granularity; typically much smaller.
	PageSize  int
	BatchSize int

	mu     sync.Mutex
	state  State
	events chan Event
}

func NewController(i *interop.Interop, source provider.Source, syncer *Syncer) *Controller {
	pageSize := viper.GetInt("sync.pageSize")
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	batchSize := viper.GetInt("sync.batchSize")
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Controller{
		i:         i,
		source:    source,
		syncer:    syncer,
		typ:       syncer.typ,
		PageSize:  pageSize,
		BatchSize: batchSize,
		state:     StateIdle,
		events:    make(chan Event, eventBufferSize),
	}
}

// Events is the stream any front end can subscribe to. It closes once the
// operation finishes.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SyncSelected runs the caller's id list as one logical operation; progress
// is reported once, at the end.
func (c *Controller) SyncSelected(ctx context.Context, sourceIDs []string) (*Aggregate, error) {
	c.setState(StateRunning)
	defer close(c.events)

	agg := c.syncer.SyncMany(ctx, sourceIDs)

	c.emit(Event{
		Type:      EventProgress,
		Processed: agg.Total,
		Total:     agg.Total,
		Batch:     agg.Results,
	})

	c.setState(StateCompleted)
	c.emit(Event{Type: EventCompleted, Processed: agg.Total, Total: agg.Total})

	return agg, nil
}

// SyncAll syncs the entire source catalog for the entity type: count, page
// through the id listing, then process fixed-size batches strictly in order.
func (c *Controller) SyncAll(ctx context.Context) (*Aggregate, error) {
	c.setState(StateRunning)
	defer close(c.events)

	agg := &Aggregate{}

	countPage, err := c.source.List(ctx, c.typ, 0, 0)
	if err != nil {
		return agg, c.fail(agg, err)
	}

	if countPage.Total == 0 {
		c.i.Logger.Infof("nothing to sync for %s", c.typ)
		c.setState(StateCompleted)
		c.emit(Event{Type: EventCompleted, Message: "nothing to sync"})
		return agg, nil
	}

	sourceIDs, err := c.collectIDs(ctx, countPage.Total)
	if err != nil {
		return agg, c.fail(agg, err)
	}

	total := len(sourceIDs)
	processed := 0

	for start := 0; start < total; start += c.BatchSize {
		if ctx.Err() != nil {
			c.i.Logger.Infof(
				"sync of %s cancelled after %d of %d records",
				c.typ,
				processed,
				total,
			)
			c.setState(StateAborted)
			c.emit(Event{Type: EventAborted, Processed: processed, Total: total})
			return agg, ctx.Err()
		}

		end := start + c.BatchSize
		if end > total {
			end = total
		}

		batch := c.syncer.SyncMany(ctx, sourceIDs[start:end])

		agg.Total += batch.Total
		agg.Successful += batch.Successful
		agg.Failed += batch.Failed
		agg.Results = append(agg.Results, batch.Results...)
		processed = end

		c.emit(Event{
			Type:      EventProgress,
			Processed: processed,
			Total:     total,
			Batch:     batch.Results,
		})
	}

	c.setState(StateCompleted)
	c.emit(Event{Type: EventCompleted, Processed: processed, Total: total})

	return agg, nil
}

// collectIDs pages through the full id listing before any batch runs, so
// batching is stable against records created mid-sync.
func (c *Controller) collectIDs(ctx context.Context, total int) ([]string, error) {
	sourceIDs := make([]string, 0, total)

	for offset := 0; offset < total; {
		page, err := c.source.List(ctx, c.typ, c.PageSize, offset)
		if err != nil {
			return nil, err
		}

		if len(page.Records) == 0 {
			break
		}

		for _, record := range page.Records {
			sourceIDs = append(sourceIDs, cast.ToString(record["id"]))
		}

		offset += len(page.Records)
	}

	return sourceIDs, nil
}

func (c *Controller) fail(agg *Aggregate, err error) error {
	c.i.Logger.Warnf("sync of %s failed: %s", c.typ, err)
	c.setState(StateFailed)
	c.emit(Event{Type: EventFailed, Processed: agg.Total, Err: err})
	return err
}

// emit never blocks: a full buffer drops progress rather than stalling the
// sync behind a slow consumer.
func (c *Controller) emit(event Event) {
	select {
	case c.events <- event:
	default:
		c.i.Logger.Warnf("dropping %s event, consumer too slow", event.Type)
	}
}
