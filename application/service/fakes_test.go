package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/domain/repository"
)

// fakeStore is an in-memory RecordCatalog that counts calls.
type fakeStore struct {
	mu      sync.Mutex
	records map[entity.Name][]entity.Record

	listErr   error
	updateErr map[string]error

	listCalls   atomic.Int32
	findCalls   atomic.Int32
	updateCalls atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   map[entity.Name][]entity.Record{},
		updateErr: map[string]error{},
	}
}

func (f *fakeStore) add(name entity.Name, records ...entity.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[name] = append(f.records[name], records...)
}

func (f *fakeStore) get(name entity.Name, id string) (entity.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records[name] {
		if r.ID() == id {
			return r, true
		}
	}
	return entity.Record{}, false
}

func (f *fakeStore) totalCalls() int32 {
	return f.listCalls.Load() + f.findCalls.Load() + f.updateCalls.Load()
}

func (f *fakeStore) List(_ context.Context, name entity.Name) ([]entity.Record, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Record(nil), f.records[name]...), nil
}

func (f *fakeStore) Find(_ context.Context, name entity.Name, options ...repository.Option) ([]entity.Record, error) {
	f.findCalls.Add(1)
	q := repository.Build(options...)

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Record
	for _, r := range f.records[name] {
		if matches(q, r) {
			out = append(out, r)
		}
	}
	if orders := q.Orders(); len(orders) > 0 && !orders[0].Ascending() {
		slices.Reverse(out)
	}
	if q.OffsetValue() > 0 {
		out = out[min(q.OffsetValue(), len(out)):]
	}
	if q.LimitValue() > 0 && len(out) > q.LimitValue() {
		out = out[:q.LimitValue()]
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, name entity.Name, id string) (entity.Record, error) {
	r, ok := f.get(name, id)
	if !ok {
		return entity.Record{}, errors.New("not found")
	}
	return r, nil
}

func (f *fakeStore) Count(ctx context.Context, name entity.Name, options ...repository.Option) (int64, error) {
	found, err := f.Find(ctx, name, options...)
	return int64(len(found)), err
}

func (f *fakeStore) SaveAll(_ context.Context, name entity.Name, records []entity.Record) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var replaced int64
	for _, record := range records {
		i := slices.IndexFunc(f.records[name], func(r entity.Record) bool { return r.ID() == record.ID() })
		if i >= 0 {
			f.records[name][i] = record
			replaced++
			continue
		}
		f.records[name] = append(f.records[name], record)
	}
	return replaced, nil
}

func (f *fakeStore) UpdateEmbedding(_ context.Context, name entity.Name, id string, vector []float64, model string, at time.Time) error {
	f.updateCalls.Add(1)
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records[name] {
		if r.ID() == id {
			f.records[name][i] = r.WithEmbedding(vector, model, at)
			return nil
		}
	}
	return errors.New("no row " + id)
}

// matches evaluates the id, null and equality conditions of q against r.
func matches(q repository.Query, r entity.Record) bool {
	for _, c := range q.Conditions() {
		if isNull, ok := c.Null(); ok {
			if c.Field() == "embedding" && isNull == r.HasEmbedding() {
				return false
			}
			continue
		}
		switch c.Field() {
		case "id":
			if !slices.Contains(idsOf(c), r.ID()) {
				return false
			}
		case "embedding_model":
			if c.Value() != r.EmbeddingModel() {
				return false
			}
		}
	}
	return true
}

func idsOf(c repository.Condition) []string {
	switch v := c.Value().(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}

// fakeEmbedder returns a fixed-size vector and records peak concurrency.
type fakeEmbedder struct {
	dims  int
	delay time.Duration
	fail  func(text string) error

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	texts []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}

	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.fail != nil {
		if err := e.fail(text); err != nil {
			return nil, err
		}
	}
	dims := e.dims
	if dims == 0 {
		dims = 768
	}
	return make([]float64, dims), nil
}

func (e *fakeEmbedder) sortedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]string(nil), e.texts...)
	sort.Strings(out)
	return out
}

// recordingObserver captures observer notifications.
type recordingObserver struct {
	mu         sync.Mutex
	runs       []int
	outcomes   []embedding.Outcome
	batchSizes []int
}

func (o *recordingObserver) RunStarted(_ entity.Name, candidates int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, candidates)
}

func (o *recordingObserver) RecordProcessed(_ entity.Name, outcome embedding.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) BatchCompleted(_ entity.Name, size int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batchSizes = append(o.batchSizes, size)
}
