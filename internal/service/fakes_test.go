package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// memStore is an in-memory store.Store. Setting down makes every call fail
// with store.ErrConnectivity.
type memStore struct {
	mu     sync.Mutex
	name   string
	tables map[string]map[string]models.Row
	down   bool
	putErr error
	puts   int
}

func newMemStore(name string) *memStore {
	return &memStore{name: name, tables: make(map[string]map[string]models.Row)}
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return store.ErrConnectivity
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, table, id string) (models.Row, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, false, store.ErrConnectivity
	}
	row, ok := m.tables[table][id]
	if !ok {
		return nil, false, nil
	}
	return row.Clone(), true, nil
}

func (m *memStore) Put(ctx context.Context, table string, row models.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return store.ErrConnectivity
	}
	if m.putErr != nil {
		return m.putErr
	}
	if row.ID() == "" {
		return store.ErrMissingID
	}
	if m.tables[table] == nil {
		m.tables[table] = make(map[string]models.Row)
	}
	m.tables[table][row.ID()] = row.Clone()
	m.puts++
	return nil
}

func (m *memStore) Delete(ctx context.Context, table, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, store.ErrConnectivity
	}
	_, ok := m.tables[table][id]
	delete(m.tables[table], id)
	return ok, nil
}

func (m *memStore) Query(ctx context.Context, table string, filter models.Row) ([]models.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, store.ErrConnectivity
	}
	ids := make([]string, 0, len(m.tables[table]))
	for id := range m.tables[table] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.Row
	for _, id := range ids {
		row := m.tables[table][id]
		match := true
		for k, v := range filter {
			if row[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

func (m *memStore) setDown(down bool) {
	m.mu.Lock()
	m.down = down
	m.mu.Unlock()
}

func (m *memStore) row(table, id string) (models.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][id]
	return row, ok
}

func (m *memStore) seed(table string, row models.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables[table] == nil {
		m.tables[table] = make(map[string]models.Row)
	}
	m.tables[table][row.ID()] = row.Clone()
}

type memSyncRecords struct {
	mu        sync.Mutex
	recs      []models.SyncRecord
	appendErr error
	markErr   error
}

func (r *memSyncRecords) Append(ctx context.Context, rec models.SyncRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return 0, r.appendErr
	}
	rec.ID = int64(len(r.recs) + 1)
	r.recs = append(r.recs, rec)
	return rec.ID, nil
}

func (r *memSyncRecords) ListPending(ctx context.Context) ([]models.SyncRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SyncRecord
	for _, rec := range r.recs {
		if rec.Status == models.SyncStatusPending {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.Before(out[j].CapturedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memSyncRecords) MarkStatus(ctx context.Context, id int64, status models.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	for i := range r.recs {
		if r.recs[i].ID == id {
			r.recs[i].Status = status
			return nil
		}
	}
	return store.ErrSyncRecordNotFound
}

func (r *memSyncRecords) MarkError(ctx context.Context, id int64, cause string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recs {
		if r.recs[i].ID == id {
			r.recs[i].Attempts++
			r.recs[i].LastError = cause
			return nil
		}
	}
	return store.ErrSyncRecordNotFound
}

func (r *memSyncRecords) CountByStatus(ctx context.Context, status models.SyncStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.recs {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memSyncRecords) get(id int64) models.SyncRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recs[id-1]
}

func (r *memSyncRecords) all() []models.SyncRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SyncRecord(nil), r.recs...)
}

type memConflicts struct {
	mu        sync.Mutex
	items     []models.ConflictRecord
	createErr error
}

func (c *memConflicts) Create(ctx context.Context, rec models.ConflictRecord) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return 0, c.createErr
	}
	rec.ID = int64(len(c.items) + 1)
	c.items = append(c.items, rec)
	return rec.ID, nil
}

func (c *memConflicts) Get(ctx context.Context, id int64) (models.ConflictRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 || int(id) > len(c.items) {
		return models.ConflictRecord{}, store.ErrConflictNotFound
	}
	return c.items[id-1], nil
}

func (c *memConflicts) ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ConflictRecord
	for _, item := range c.items {
		if !item.Resolved {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *memConflicts) FindUnresolved(ctx context.Context, table, recordID string) (models.ConflictRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if !item.Resolved && item.Table == table && item.RecordID == recordID {
			return item, true, nil
		}
	}
	return models.ConflictRecord{}, false, nil
}

func (c *memConflicts) MarkResolved(ctx context.Context, id int64, strategy models.ResolutionStrategy, at time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 || int(id) > len(c.items) {
		return false, store.ErrConflictNotFound
	}
	item := &c.items[id-1]
	if item.Resolved {
		return false, nil
	}
	item.Resolved = true
	item.ResolutionStrategy = strategy
	item.ResolvedAt = &at
	return true, nil
}

func (c *memConflicts) RefreshSecondary(ctx context.Context, id int64, op models.Operation, snapshot models.Row, capturedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 || int(id) > len(c.items) || c.items[id-1].Resolved {
		return store.ErrConflictNotFound
	}
	item := &c.items[id-1]
	item.Op = op
	item.SecondarySnapshot = snapshot.Clone()
	item.SecondaryTimestamp = capturedAt
	return nil
}

func (c *memConflicts) CountUnresolved(ctx context.Context) (int64, error) {
	items, _ := c.ListUnresolved(ctx)
	return int64(len(items)), nil
}

type memSyncLog struct {
	mu      sync.Mutex
	entries []models.LogEntry
	err     error
}

func (l *memSyncLog) Append(ctx context.Context, e models.LogEntry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
	return e.ID, nil
}

func (l *memSyncLog) Tail(ctx context.Context, sessionID string, limit int) ([]models.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LogEntry
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if sessionID == "" || l.entries[i].SessionID == sessionID {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}

func (l *memSyncLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Message)
	}
	return out
}
