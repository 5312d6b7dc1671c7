package triggers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Imaddindepf/tradeul-sub005/market"
	"github.com/Imaddindepf/tradeul-sub005/metrics"
	"github.com/Imaddindepf/tradeul-sub005/orchestrator"
)

const (
	// alertStreamMaxLen caps each per-user alert stream.
	alertStreamMaxLen = 1000

	readBatch = 64
	readBlock = 2 * time.Second
)

// Store is the slice of the Redis client the trigger engine uses:
// registry hashes, the event stream consumer group, and alert streams.
type Store interface {
	HSet(ctx context.Context, key, field string, value interface{}) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	XAdd(ctx context.Context, stream string, maxLen int64, values []interface{}) error
	EnsureGroup(ctx context.Context, stream, group string) error
	ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]redis.XMessage, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
}

// Invoker starts workflow runs on the external orchestrator.
type Invoker interface {
	Invoke(ctx context.Context, inv *orchestrator.Invocation) error
}

// Engine consumes the market event stream and evaluates every event
// against the in-memory trigger cache. Evaluation is serialized by the
// single consumer loop; dispatches for one event run in parallel.
type Engine struct {
	store Store
	orch  Invoker // nil when no orchestrator is configured

	mu     sync.RWMutex
	byUser map[string]map[string]*Trigger

	consumer string
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a trigger engine over the given store. The orchestrator
// client may be nil; workflow triggers then fail at dispatch with a log.
func New(store Store, orch Invoker) *Engine {
	consumer, err := os.Hostname()
	if err != nil || consumer == "" {
		consumer = "trigger-" + uuid.NewString()[:8]
	}
	return &Engine{
		store:    store,
		orch:     orch,
		byUser:   make(map[string]map[string]*Trigger),
		consumer: consumer,
		done:     make(chan struct{}),
	}
}

func registryKey(userID string) string {
	return "triggers:active:" + userID
}

// LoadAll hydrates the evaluation cache from every persisted registry
// hash. Disabled and malformed entries are skipped.
func (e *Engine) LoadAll(ctx context.Context) error {
	keys, err := e.store.ScanKeys(ctx, "triggers:active:*")
	if err != nil {
		return fmt.Errorf("failed to scan trigger registry: %w", err)
	}

	loaded := 0
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byUser = make(map[string]map[string]*Trigger)

	for _, key := range keys {
		fields, err := e.store.HGetAll(ctx, key)
		if err != nil {
			log.Printf("⚠️ Failed to read trigger hash %s: %v", key, err)
			continue
		}
		for id, raw := range fields {
			var t Trigger
			if err := json.Unmarshal([]byte(raw), &t); err != nil {
				log.Printf("⚠️ Skipping malformed trigger %s in %s: %v", id, key, err)
				continue
			}
			if !t.Enabled {
				continue
			}
			if e.byUser[t.UserID] == nil {
				e.byUser[t.UserID] = make(map[string]*Trigger)
			}
			e.byUser[t.UserID][t.ID] = &t
			loaded++
		}
	}

	log.Printf("✅ Loaded %d active triggers across %d users", loaded, len(e.byUser))
	return nil
}

// Register validates and persists a trigger, then updates the cache.
// Disabled triggers stay persisted but leave the evaluation cache.
func (e *Engine) Register(ctx context.Context, t *Trigger) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to serialize trigger: %w", err)
	}
	if err := e.store.HSet(ctx, registryKey(t.UserID), t.ID, raw); err != nil {
		return fmt.Errorf("failed to persist trigger: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t.Enabled {
		if e.byUser[t.UserID] == nil {
			e.byUser[t.UserID] = make(map[string]*Trigger)
		}
		e.byUser[t.UserID][t.ID] = t
	} else {
		delete(e.byUser[t.UserID], t.ID)
	}
	return nil
}

// Unregister removes a trigger from the store and the cache. Returns
// false when the trigger does not exist.
func (e *Engine) Unregister(ctx context.Context, userID, triggerID string) (bool, error) {
	fields, err := e.store.HGetAll(ctx, registryKey(userID))
	if err != nil {
		return false, fmt.Errorf("failed to read trigger hash: %w", err)
	}
	if _, found := fields[triggerID]; !found {
		return false, nil
	}
	if err := e.store.HDel(ctx, registryKey(userID), triggerID); err != nil {
		return false, fmt.Errorf("failed to delete trigger: %w", err)
	}

	e.mu.Lock()
	delete(e.byUser[userID], triggerID)
	if len(e.byUser[userID]) == 0 {
		delete(e.byUser, userID)
	}
	e.mu.Unlock()
	return true, nil
}

// List returns every persisted trigger for a user, enabled or not,
// sorted by name for stable API output.
func (e *Engine) List(ctx context.Context, userID string) ([]*Trigger, error) {
	fields, err := e.store.HGetAll(ctx, registryKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read trigger hash: %w", err)
	}

	out := make([]*Trigger, 0, len(fields))
	for id, raw := range fields {
		var t Trigger
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			log.Printf("⚠️ Skipping malformed trigger %s for user %s: %v", id, userID, err)
			continue
		}
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ActiveCount reports how many triggers are in the evaluation cache.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, userTriggers := range e.byUser {
		n += len(userTriggers)
	}
	return n
}

// Start ensures the consumer group exists and launches the consumer
// loop. LoadAll should have run first.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.EnsureGroup(ctx, market.EventStream, market.TriggerConsumerGroup); err != nil {
		return err
	}

	e.wg.Add(1)
	go e.run(ctx)
	log.Printf("🚀 Trigger engine started: consumer %s, %d active triggers", e.consumer, e.ActiveCount())
	return nil
}

// Stop halts the consumer loop. Pending dispatches finish first.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
	e.wg.Wait()
	log.Println("✅ Trigger engine stopped")
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		default:
		}

		msgs, err := e.store.ReadGroup(ctx, market.EventStream, market.TriggerConsumerGroup, e.consumer, readBatch, readBlock)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // block timeout, nothing new
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("⚠️ Trigger consumer read failed: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			case <-e.done:
				return
			}
			continue
		}

		for _, msg := range msgs {
			// Ack before dispatch: trigger delivery is at-most-once, so a
			// crash mid-dispatch loses the event instead of replaying it.
			if err := e.store.Ack(ctx, market.EventStream, market.TriggerConsumerGroup, msg.ID); err != nil {
				log.Printf("⚠️ Failed to ack stream entry %s: %v", msg.ID, err)
			}

			ev, err := market.ParseStreamEvent(msg.Values)
			if err != nil {
				log.Printf("⚠️ Skipping malformed stream event %s: %v", msg.ID, err)
				continue
			}
			e.evaluate(ctx, ev)
		}
	}
}

// evaluate matches one event and dispatches all matches in parallel,
// gathering completions before returning.
func (e *Engine) evaluate(ctx context.Context, ev *market.EventRecord) {
	matched := e.claimMatches(ev)
	if len(matched) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, t := range matched {
		wg.Add(1)
		go func(t Trigger) {
			defer wg.Done()
			e.dispatch(ctx, &t, ev)
		}(t)
	}
	wg.Wait()
}

// claimMatches returns value copies of every trigger the event fires.
// last_fired advances to the event timestamp inside the lock, so two
// events in one batch cannot both claim the same trigger within its
// cooldown.
func (e *Engine) claimMatches(ev *market.EventRecord) []Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	var matched []Trigger
	for _, userTriggers := range e.byUser {
		for _, t := range userTriggers {
			if !t.Matches(ev) {
				continue
			}
			t.LastFired = ev.Timestamp.Unix()
			metrics.TriggerMatches.Inc()
			matched = append(matched, *t)
		}
	}
	return matched
}

func (e *Engine) dispatch(ctx context.Context, t *Trigger, ev *market.EventRecord) {
	e.persistLastFired(ctx, t)

	switch t.Action {
	case ActionWorkflow:
		e.dispatchWorkflow(ctx, t, ev)
	default:
		e.dispatchAlert(ctx, t, ev)
	}
}

// persistLastFired rewrites the stored trigger with the advanced
// last_fired. Best effort: on failure a restart may re-fire once
// inside the cooldown window.
func (e *Engine) persistLastFired(ctx context.Context, t *Trigger) {
	raw, err := json.Marshal(t)
	if err == nil {
		err = e.store.HSet(ctx, registryKey(t.UserID), t.ID, raw)
	}
	if err != nil {
		log.Printf("⚠️ Failed to persist last_fired for trigger %s: %v", t.ID, err)
	}
}

func (e *Engine) dispatchAlert(ctx context.Context, t *Trigger, ev *market.EventRecord) {
	values := []interface{}{
		"trigger_id", t.ID,
		"trigger_name", t.Name,
		"event_id", ev.ID,
		"symbol", ev.Symbol,
		"event_type", string(ev.EventType),
		"price", strconv.FormatFloat(ev.Price, 'f', -1, 64),
		"message", t.RenderMessage(ev),
		"ts", strconv.FormatInt(ev.Timestamp.UnixMilli(), 10),
	}

	if err := e.store.XAdd(ctx, market.AlertStream(t.UserID), alertStreamMaxLen, values); err != nil {
		metrics.TriggerDispatchErrors.Inc()
		log.Printf("⚠️ Alert publish failed for trigger %s: %v", t.ID, err)
		return
	}
	metrics.TriggerAlerts.Inc()
}

func (e *Engine) dispatchWorkflow(ctx context.Context, t *Trigger, ev *market.EventRecord) {
	if e.orch == nil {
		metrics.TriggerDispatchErrors.Inc()
		log.Printf("⚠️ Workflow trigger %s fired but no orchestrator is configured", t.ID)
		return
	}

	inv := &orchestrator.Invocation{
		WorkflowID: t.WorkflowID,
		UserID:     t.UserID,
		TriggerContext: map[string]interface{}{
			"trigger_id":   t.ID,
			"trigger_name": t.Name,
			"event":        ev,
		},
	}
	if err := e.orch.Invoke(ctx, inv); err != nil {
		metrics.TriggerDispatchErrors.Inc()
		log.Printf("⚠️ Workflow invocation failed for trigger %s: %v", t.ID, err)
		return
	}
	metrics.TriggerWorkflows.Inc()
}
