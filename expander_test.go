package cachekit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/cachekit/codec"
	"github.com/unkn0wn-root/cachekit/provider"
	"github.com/unkn0wn-root/cachekit/store"
	"github.com/unkn0wn-root/cachekit/store/memory"
)

type user struct {
	ID    string `msgpack:"id"`
	Name  string `msgpack:"name"`
	Email string `msgpack:"email"`
}

func (u user) CacheKey() string    { return u.ID }
func (u user) CachePrefix() string { return "user" }

// checkedUser rejects an empty name on load.
type checkedUser struct {
	ID   string `msgpack:"id"`
	Name string `msgpack:"name"`
}

func (u checkedUser) CacheKey() string    { return u.ID }
func (u checkedUser) CachePrefix() string { return "cuser" }
func (u checkedUser) Validate() error {
	if u.Name == "" {
		return errors.New("name is empty")
	}
	return nil
}

// blankEntity has no namespace; New must reject it.
type blankEntity struct{}

func (blankEntity) CacheKey() string    { return "" }
func (blankEntity) CachePrefix() string { return "" }

// funcProvider counts fetches and delegates to fn.
type funcProvider[T Entity] struct {
	mu      sync.Mutex
	fetches int
	fn      func(id string) (*T, error)
}

func (p *funcProvider[T]) FetchByID(_ context.Context, id string) (*T, error) {
	p.mu.Lock()
	p.fetches++
	p.mu.Unlock()
	return p.fn(id)
}

func (p *funcProvider[T]) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func userProvider(users map[string]user) *funcProvider[user] {
	return &funcProvider[user]{fn: func(id string) (*user, error) {
		u, ok := users[id]
		if !ok {
			return nil, nil
		}
		return &u, nil
	}}
}

// recordStore wraps an inner store and records Set TTLs and Delete calls.
// failSets makes every Set fail; failGets makes the next N Gets fail.
type recordStore struct {
	inner    store.Store
	mu       sync.Mutex
	setTTLs  []time.Duration
	deletes  []string
	failSets bool
	failGets int
}

func newRecordStore() *recordStore { return &recordStore{inner: memory.New()} }

func (s *recordStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	fail := s.failGets > 0
	if fail {
		s.failGets--
	}
	s.mu.Unlock()
	if fail {
		return nil, false, errors.New("store down")
	}
	return s.inner.Get(ctx, key)
}

func (s *recordStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.setTTLs = append(s.setTTLs, ttl)
	fail := s.failSets
	s.mu.Unlock()
	if fail {
		return errors.New("write refused")
	}
	return s.inner.Set(ctx, key, value, ttl)
}

func (s *recordStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, key)
	s.mu.Unlock()
	return s.inner.Delete(ctx, key)
}

// countMetrics tallies every sink callback.
type countMetrics struct {
	mu                                  sync.Mutex
	hits, misses, sets, deletes, errors int
	lastErrKey, lastErrText             string
}

func (m *countMetrics) RecordHit(string, time.Duration)    { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *countMetrics) RecordMiss(string, time.Duration)   { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *countMetrics) RecordSet(string, time.Duration)    { m.mu.Lock(); m.sets++; m.mu.Unlock() }
func (m *countMetrics) RecordDelete(string, time.Duration) { m.mu.Lock(); m.deletes++; m.mu.Unlock() }
func (m *countMetrics) RecordError(key, text string) {
	m.mu.Lock()
	m.errors++
	m.lastErrKey, m.lastErrText = key, text
	m.mu.Unlock()
}

func newUserExpander(t *testing.T, mutate func(*Options[user])) *Expander[user] {
	t.Helper()
	opts := Options[user]{Store: memory.New()}
	if mutate != nil {
		mutate(&opts)
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options[user]{})
	if KindOf(err) != KindConfig {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestNewRequiresNamespace(t *testing.T) {
	_, err := New(Options[blankEntity]{Store: memory.New()})
	if KindOf(err) != KindConfig {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestFreshNeverConsultsProvider(t *testing.T) {
	m := &countMetrics{}
	e := newUserExpander(t, func(o *Options[user]) { o.Metrics = m })
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, prov, StrategyFresh); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.Data != nil {
		t.Fatalf("Data = %+v, want nil on cold cache", f.Data)
	}
	if prov.count() != 0 {
		t.Fatalf("provider fetches = %d, want 0", prov.count())
	}
	if m.misses != 1 || m.hits != 0 {
		t.Fatalf("misses=%d hits=%d, want 1/0", m.misses, m.hits)
	}
}

func TestRefreshPopulatesThenFreshHits(t *testing.T) {
	e := newUserExpander(t, nil)
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada", Email: "ada@example.com"}})

	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, prov, StrategyRefresh); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if f.Data == nil || f.Data.Name != "Ada" {
		t.Fatalf("Data = %+v, want Ada", f.Data)
	}

	// second read must be served by the store
	f2 := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f2, nil, StrategyFresh); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if f2.Data == nil || f2.Data.Email != "ada@example.com" {
		t.Fatalf("Data = %+v, want cached Ada", f2.Data)
	}
	if prov.count() != 1 {
		t.Fatalf("provider fetches = %d, want 1", prov.count())
	}
}

func TestRefreshAbsentEntity(t *testing.T) {
	rs := newRecordStore()
	e := newUserExpander(t, func(o *Options[user]) { o.Store = rs })
	prov := userProvider(nil)

	f := NewGenericFeeder[user]("ghost")
	if err := e.Execute(context.Background(), f, prov, StrategyRefresh); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.Data != nil {
		t.Fatalf("Data = %+v, want nil", f.Data)
	}
	if len(rs.setTTLs) != 0 {
		t.Fatalf("absence must not be cached; got %d sets", len(rs.setTTLs))
	}
}

func TestInvalidateOverridesStaleEntry(t *testing.T) {
	rs := newRecordStore()
	m := &countMetrics{}
	e := newUserExpander(t, func(o *Options[user]) { o.Store = rs; o.Metrics = m })

	users := map[string]user{"1": {ID: "1", Name: "Old"}}
	prov := userProvider(users)
	if err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh); err != nil {
		t.Fatalf("seed: %v", err)
	}

	users["1"] = user{ID: "1", Name: "New"}
	prov2 := userProvider(users)
	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, prov2, StrategyInvalidate); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if f.Data == nil || f.Data.Name != "New" {
		t.Fatalf("Data = %+v, want New", f.Data)
	}
	if len(rs.deletes) != 1 || rs.deletes[0] != "user:1" {
		t.Fatalf("deletes = %v, want [user:1]", rs.deletes)
	}
	if m.deletes != 1 {
		t.Fatalf("RecordDelete = %d, want 1", m.deletes)
	}

	// cached copy is the new one
	f2 := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f2, nil, StrategyFresh); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if f2.Data == nil || f2.Data.Name != "New" {
		t.Fatalf("cached Data = %+v, want New", f2.Data)
	}
}

func TestBypassIgnoresCacheButWritesThrough(t *testing.T) {
	e := newUserExpander(t, nil)

	users := map[string]user{"1": {ID: "1", Name: "Old"}}
	if err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), userProvider(users), StrategyRefresh); err != nil {
		t.Fatalf("seed: %v", err)
	}

	users["1"] = user{ID: "1", Name: "New"}
	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, userProvider(users), StrategyBypass); err != nil {
		t.Fatalf("bypass: %v", err)
	}
	if f.Data == nil || f.Data.Name != "New" {
		t.Fatalf("Data = %+v, want provider value", f.Data)
	}

	f2 := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f2, nil, StrategyFresh); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if f2.Data == nil || f2.Data.Name != "New" {
		t.Fatalf("cached Data = %+v, want written-through value", f2.Data)
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	rs := newRecordStore()
	rs.failGets = 2
	e := newUserExpander(t, func(o *Options[user]) { o.Store = rs })
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	f := NewGenericFeeder[user]("1")
	cfg := OperationConfig{}.WithRetry(2)
	if err := e.ExecuteWithConfig(context.Background(), f, prov, StrategyRefresh, cfg); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.Data == nil || f.Data.Name != "Ada" {
		t.Fatalf("Data = %+v, want Ada after retries", f.Data)
	}
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	e := newUserExpander(t, nil)
	calls := 0
	prov := &funcProvider[user]{fn: func(string) (*user, error) {
		calls++
		return nil, errors.New("db unavailable")
	}}

	cfg := OperationConfig{}.WithRetry(1)
	err := e.ExecuteWithConfig(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh, cfg)
	if KindOf(err) != KindRepository {
		t.Fatalf("err = %v, want repository error", err)
	}
	if calls != 2 {
		t.Fatalf("provider calls = %d, want 2 (retry count 1)", calls)
	}
	if !strings.Contains(err.Error(), "db unavailable") {
		t.Fatalf("err = %v, want cause preserved", err)
	}
}

func TestZeroRetryIsSingleAttempt(t *testing.T) {
	calls := 0
	e := newUserExpander(t, nil)
	prov := &funcProvider[user]{fn: func(string) (*user, error) {
		calls++
		return nil, errors.New("boom")
	}}

	start := time.Now()
	err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh)
	if err == nil {
		t.Fatal("want error")
	}
	if calls != 1 {
		t.Fatalf("provider calls = %d, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("single attempt took %v; no backoff expected", elapsed)
	}
}

func TestTTLResolutionPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		policy  TTLPolicy
		cfgTTL  time.Duration
		wantTTL time.Duration
	}{
		{"override beats policy", FixedTTL(5 * time.Minute), time.Minute, time.Minute},
		{"policy when no override", FixedTTL(5 * time.Minute), 0, 5 * time.Minute},
		{"store default resolves to zero", StoreDefaultTTL(), 0, 0},
		{"infinite resolves to zero with intent", InfiniteTTL(), 0, 0},
		{"per-namespace policy", PerNamespaceTTL(func(ns string) time.Duration {
			if ns == "user" {
				return 30 * time.Second
			}
			return time.Hour
		}), 0, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newRecordStore()
			e := newUserExpander(t, func(o *Options[user]) { o.Store = rs; o.TTL = tt.policy })
			prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

			cfg := OperationConfig{TTL: tt.cfgTTL}
			if err := e.ExecuteWithConfig(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh, cfg); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(rs.setTTLs) != 1 || rs.setTTLs[0] != tt.wantTTL {
				t.Fatalf("set ttls = %v, want [%v]", rs.setTTLs, tt.wantTTL)
			}
		})
	}
}

func TestRepopulationFailureIsSwallowed(t *testing.T) {
	rs := newRecordStore()
	rs.failSets = true
	m := &countMetrics{}
	e := newUserExpander(t, func(o *Options[user]) { o.Store = rs; o.Metrics = m })
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, prov, StrategyRefresh); err != nil {
		t.Fatalf("Execute: %v, want nil despite write failure", err)
	}
	if f.Data == nil || f.Data.Name != "Ada" {
		t.Fatalf("Data = %+v, want delivered value", f.Data)
	}
	if m.sets != 0 {
		t.Fatalf("RecordSet = %d, want 0 for failed write", m.sets)
	}
	if m.hits != 1 {
		t.Fatalf("RecordHit = %d, want 1", m.hits)
	}
}

func TestMetricsOnProviderError(t *testing.T) {
	m := &countMetrics{}
	e := newUserExpander(t, func(o *Options[user]) { o.Metrics = m })
	prov := &funcProvider[user]{fn: func(string) (*user, error) {
		return nil, errors.New("db unavailable")
	}}

	err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh)
	if err == nil {
		t.Fatal("want error")
	}
	if m.errors != 1 {
		t.Fatalf("RecordError = %d, want 1", m.errors)
	}
	if m.lastErrKey != "user:1" {
		t.Fatalf("error key = %q, want user:1", m.lastErrKey)
	}
	if !strings.Contains(m.lastErrText, "db unavailable") {
		t.Fatalf("error text = %q, want cause included", m.lastErrText)
	}
}

type hookFeeder struct {
	GenericFeeder[user]
	order   []string
	hitErr  error
	missErr error
}

func (f *hookFeeder) OnHit(key string) error {
	f.order = append(f.order, "hit:"+key)
	return f.hitErr
}

func (f *hookFeeder) OnMiss(key string) error {
	f.order = append(f.order, "miss:"+key)
	return f.missErr
}

func (f *hookFeeder) OnLoaded(u *user) error {
	f.order = append(f.order, "loaded:"+u.ID)
	return nil
}

func (f *hookFeeder) Feed(u *user) {
	f.order = append(f.order, "feed")
	f.GenericFeeder.Feed(u)
}

func TestHookOrderOnHit(t *testing.T) {
	e := newUserExpander(t, nil)
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	f := &hookFeeder{GenericFeeder: GenericFeeder[user]{ID: "1"}}
	if err := e.Execute(context.Background(), f, prov, StrategyRefresh); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"hit:user:1", "loaded:1", "feed"}
	if len(f.order) != len(want) {
		t.Fatalf("order = %v, want %v", f.order, want)
	}
	for i := range want {
		if f.order[i] != want[i] {
			t.Fatalf("order = %v, want %v", f.order, want)
		}
	}
}

func TestHookOrderOnMiss(t *testing.T) {
	e := newUserExpander(t, nil)

	f := &hookFeeder{GenericFeeder: GenericFeeder[user]{ID: "1"}}
	if err := e.Execute(context.Background(), f, userProvider(nil), StrategyRefresh); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.order) != 2 || f.order[0] != "miss:user:1" || f.order[1] != "feed" {
		t.Fatalf("order = %v, want [miss:user:1 feed]", f.order)
	}
	if f.Data != nil {
		t.Fatalf("Data = %+v, want nil", f.Data)
	}
}

func TestHitHookErrorStopsDelivery(t *testing.T) {
	e := newUserExpander(t, nil)
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	hookErr := errors.New("hook rejected")
	f := &hookFeeder{GenericFeeder: GenericFeeder[user]{ID: "1"}, hitErr: hookErr}
	err := e.Execute(context.Background(), f, prov, StrategyRefresh)
	if !errors.Is(err, hookErr) {
		t.Fatalf("err = %v, want hook error", err)
	}
	if f.Data != nil {
		t.Fatalf("Data = %+v, want nil after hook failure", f.Data)
	}
}

func TestEntityValidationFailureOnLoad(t *testing.T) {
	st := memory.New()
	e, err := New(Options[checkedUser]{Store: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prov := &funcProvider[checkedUser]{fn: func(id string) (*checkedUser, error) {
		return &checkedUser{ID: id}, nil // blank name
	}}

	f := NewGenericFeeder[checkedUser]("1")
	err = e.Execute(context.Background(), f, prov, StrategyRefresh)
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if f.Data != nil {
		t.Fatalf("Data = %+v, want nil for invalid entity", f.Data)
	}
}

func TestFeederValidationRejectsEmptyID(t *testing.T) {
	e := newUserExpander(t, nil)
	err := e.Execute(context.Background(), NewGenericFeeder[user](""), nil, StrategyFresh)
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCorruptEntrySurfacesKind(t *testing.T) {
	e := newUserExpander(t, nil)
	ctx := context.Background()

	if err := e.Store().Set(ctx, "user:1", []byte("XXXXgarbage"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := e.Execute(ctx, NewGenericFeeder[user]("1"), nil, StrategyFresh)
	if KindOf(err) != KindInvalidEntry {
		t.Fatalf("err = %v, want invalid entry", err)
	}

	if err := e.Store().Set(ctx, "user:2", []byte("shrt"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = e.Execute(ctx, NewGenericFeeder[user]("2"), nil, StrategyFresh)
	if KindOf(err) != KindDeserialization {
		t.Fatalf("err = %v, want deserialization error for truncated entry", err)
	}
}

func TestIDWithSeparatorRoundTrips(t *testing.T) {
	e := newUserExpander(t, nil)
	var gotID string
	prov := &funcProvider[user]{fn: func(id string) (*user, error) {
		gotID = id
		return &user{ID: id, Name: "Composite"}, nil
	}}

	f := NewGenericFeeder[user]("tenant:42:session")
	if err := e.Execute(context.Background(), f, prov, StrategyRefresh); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotID != "tenant:42:session" {
		t.Fatalf("provider id = %q, want tenant:42:session", gotID)
	}

	f2 := NewGenericFeeder[user]("tenant:42:session")
	if err := e.Execute(context.Background(), f2, nil, StrategyFresh); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if f2.Data == nil || f2.Data.Name != "Composite" {
		t.Fatalf("Data = %+v, want cached value", f2.Data)
	}
}

func TestMissingProviderIsConfigError(t *testing.T) {
	e := newUserExpander(t, nil)
	err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), nil, StrategyBypass)
	if KindOf(err) != KindConfig {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestAlternateCodec(t *testing.T) {
	e := newUserExpander(t, func(o *Options[user]) { o.Codec = codec.JSON[user]{} })
	prov := userProvider(map[string]user{"1": {ID: "1", Name: "Ada"}})

	if err := e.Execute(context.Background(), NewGenericFeeder[user]("1"), prov, StrategyRefresh); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	f := NewGenericFeeder[user]("1")
	if err := e.Execute(context.Background(), f, nil, StrategyFresh); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if f.Data == nil || f.Data.Name != "Ada" {
		t.Fatalf("Data = %+v, want Ada via JSON codec", f.Data)
	}
}

var _ provider.Provider[user] = (*funcProvider[user])(nil)
var _ store.Store = (*recordStore)(nil)
var _ Metrics = (*countMetrics)(nil)
