package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pelyams/sneaker_house_service/internal/adapters/cache"
	"github.com/pelyams/sneaker_house_service/internal/domain"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Retrieve(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]byte), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CacheStats), args.Error(1)
}

type payload struct {
	Items []string `json:"items"`
}

type checkedPayload struct {
	Items []string `json:"items"`
}

func (p *checkedPayload) Validate() error {
	if len(p.Items) == 0 {
		return errors.New("no items")
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type LoaderTestSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *cache.MemoryCache
	source *MockSource
	loader *Loader
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (suite *LoaderTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	suite.store = cache.NewMemoryCache(cache.WithClock(func() time.Time { return suite.now }))
	suite.source = new(MockSource)
	l, err := New(suite.store, suite.source, Config{}, quietLogger())
	suite.Require().NoError(err)
	suite.loader = l
}

func (suite *LoaderTestSuite) TearDownTest() {
	suite.source.AssertExpectations(suite.T())
}

func (suite *LoaderTestSuite) advance(d time.Duration) {
	suite.now = suite.now.Add(d)
}

func (suite *LoaderTestSuite) TestFreshEntryIsServedWithoutRetrieval() {
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["a"]}`), nil).Once()

	first, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{TTL: time.Minute})
	suite.Require().NoError(err)
	suite.Equal([]string{"a"}, first.Items)

	suite.advance(time.Minute)
	second, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{TTL: time.Minute})
	suite.Require().NoError(err)
	suite.Equal(first, second)
}

func (suite *LoaderTestSuite) TestExpiredEntryTriggersRetrieval() {
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["old"]}`), nil).Once()
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["new"]}`), nil).Once()

	_, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{TTL: time.Minute})
	suite.Require().NoError(err)

	suite.advance(time.Minute + time.Nanosecond)
	got, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{TTL: time.Minute})
	suite.Require().NoError(err)
	suite.Equal([]string{"new"}, got.Items)

	// the refreshed entry starts aging from zero
	stats := suite.loader.CacheStats(suite.ctx)
	suite.Equal(1, stats.Size)
	suite.Equal(time.Duration(0), stats.Entries[0].Age)
}

func (suite *LoaderTestSuite) TestDefaultTTLIsFiveMinutes() {
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":[]}`), nil).Once()

	_, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.Require().NoError(err)

	stats := suite.loader.CacheStats(suite.ctx)
	suite.Require().Len(stats.Entries, 1)
	suite.Equal(5*time.Minute, stats.Entries[0].TTL)
	suite.Equal(len(`{"items":[]}`), stats.Entries[0].DataSize)
}

func (suite *LoaderTestSuite) TestFallbackGuarantee() {
	testCases := []struct {
		name     string
		body     []byte
		err      error
		expected error
	}{
		{
			name:     "non-success status",
			body:     []byte(nil),
			err:      &domain.RetrievalError{Key: "/items.json", StatusCode: http.StatusBadGateway, Status: "Bad Gateway"},
			expected: domain.ErrRetrieval,
		},
		{
			name:     "invalid json",
			body:     []byte(`{"items": [`),
			expected: domain.ErrParse,
		},
		{
			name:     "empty body",
			body:     []byte(``),
			expected: domain.ErrParse,
		},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.source.ExpectedCalls = nil
			suite.source.On("Retrieve", mock.Anything, "/items.json").Return(tc.body, tc.err).Once()

			var observed error
			fallback := payload{Items: []string{"placeholder"}}
			got, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{
				Fallback:   &fallback,
				OnFallback: func(err error) { observed = err },
			})
			suite.NoError(err)
			suite.Equal(fallback, got)
			suite.ErrorIs(observed, tc.expected)
			suite.Equal(0, suite.loader.CacheStats(suite.ctx).Size, "failures are never cached")
		})
	}
}

func (suite *LoaderTestSuite) TestFailurePropagatesWithoutFallback() {
	suite.source.On("Retrieve", mock.Anything, "/items.json").
		Return([]byte(nil), &domain.RetrievalError{Key: "/items.json", StatusCode: http.StatusNotFound, Status: "Not Found"}).Once()

	_, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.Require().Error(err)
	var re *domain.RetrievalError
	suite.Require().ErrorAs(err, &re)
	suite.Equal(http.StatusNotFound, re.StatusCode)
}

func (suite *LoaderTestSuite) TestPlainSourceErrorIsWrapped() {
	cause := errors.New("dial tcp: connection refused")
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(nil), cause).Once()

	_, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.ErrorIs(err, domain.ErrRetrieval)
	suite.ErrorIs(err, cause)
}

func (suite *LoaderTestSuite) TestSchemaFailure() {
	suite.source.On("Retrieve", mock.Anything, "/checked.json").Return([]byte(`{"items":[]}`), nil).Once()

	_, err := FetchData[checkedPayload](suite.ctx, suite.loader, "/checked.json", Options[checkedPayload]{})
	suite.ErrorIs(err, domain.ErrSchema)
	suite.Equal(0, suite.loader.CacheStats(suite.ctx).Size)
}

func (suite *LoaderTestSuite) TestCacheBypass() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "/items.json", []byte(`{"items":["cached"]}`), time.Hour))
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["fresh"]}`), nil).Twice()

	for range 2 {
		got, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{SkipCache: true})
		suite.Require().NoError(err)
		suite.Equal([]string{"fresh"}, got.Items)
	}

	data, ok, err := suite.store.Get(suite.ctx, "/items.json")
	suite.Require().NoError(err)
	suite.True(ok)
	suite.JSONEq(`{"items":["cached"]}`, string(data), "bypassing fetches leave the store untouched")
}

func (suite *LoaderTestSuite) TestClearCache() {
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["a"]}`), nil).Twice()

	_, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.Require().NoError(err)
	suite.Equal(1, suite.loader.CacheStats(suite.ctx).Size)

	suite.Require().NoError(suite.loader.ClearCache(suite.ctx))
	suite.Equal(0, suite.loader.CacheStats(suite.ctx).Size)

	_, err = FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.Require().NoError(err)
}

func (suite *LoaderTestSuite) TestInvalidateKey() {
	suite.source.On("Retrieve", mock.Anything, "/a.json").Return([]byte(`{"items":["a"]}`), nil).Twice()
	suite.source.On("Retrieve", mock.Anything, "/b.json").Return([]byte(`{"items":["b"]}`), nil).Once()

	for _, key := range []string{"/a.json", "/b.json"} {
		_, err := FetchData[payload](suite.ctx, suite.loader, key, Options[payload]{})
		suite.Require().NoError(err)
	}
	suite.Require().NoError(suite.loader.InvalidateKey(suite.ctx, "/a.json"))
	suite.Equal(1, suite.loader.CacheStats(suite.ctx).Size)

	for _, key := range []string{"/a.json", "/b.json"} {
		_, err := FetchData[payload](suite.ctx, suite.loader, key, Options[payload]{})
		suite.Require().NoError(err)
	}
	suite.ErrorIs(suite.loader.InvalidateKey(suite.ctx, ""), domain.ErrInvalidInput)
}

func (suite *LoaderTestSuite) TestUndecodableEntryIsReplaced() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "/items.json", []byte(`"just a string"`), time.Hour))
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{"items":["x"]}`), nil).Once()

	got, err := FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{})
	suite.Require().NoError(err)
	suite.Equal([]string{"x"}, got.Items)
}

func (suite *LoaderTestSuite) TestInvalidArguments() {
	_, err := FetchData[payload](suite.ctx, suite.loader, "", Options[payload]{})
	suite.ErrorIs(err, domain.ErrInvalidInput)

	fallback := payload{}
	_, err = FetchData[payload](suite.ctx, suite.loader, "/items.json", Options[payload]{TTL: -time.Second, Fallback: &fallback})
	suite.ErrorIs(err, domain.ErrInvalidInput)
}

func (suite *LoaderTestSuite) TestStoreFailuresAreNotFatal() {
	store := new(MockCache)
	store.On("Get", mock.Anything, "/items.json").Return([]byte(nil), false, domain.ErrInternalCache).Once()
	store.On("Set", mock.Anything, "/items.json", []byte(`{"items":["a"]}`), DefaultTTL).Return(domain.ErrInternalCache).Once()
	store.On("Stats", mock.Anything).Return(domain.CacheStats{}, domain.ErrInternalCache).Once()
	suite.source.On("Retrieve", mock.Anything, "/items.json").Return([]byte(`{ "items": ["a"] }`), nil).Once()

	l, err := New(store, suite.source, Config{}, quietLogger())
	suite.Require().NoError(err)

	got, err := FetchData[payload](suite.ctx, l, "/items.json", Options[payload]{})
	suite.Require().NoError(err)
	suite.Equal([]string{"a"}, got.Items)

	stats := l.CacheStats(suite.ctx)
	suite.Equal(0, stats.Size)
	suite.NotNil(stats.Entries)
	store.AssertExpectations(suite.T())
}

// countingSource blocks every retrieval until release is closed or the
// retrieval's ctx is done.
type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *countingSource) Retrieve(ctx context.Context, key string) ([]byte, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
		return []byte(`{"items":["shared"]}`), nil
	case <-ctx.Done():
		return nil, &domain.RetrievalError{Key: key, Status: "canceled", Err: ctx.Err()}
	}
}

func runConcurrentFetches(l *Loader, n int) []payload {
	results := make([]payload, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = FetchData[payload](context.Background(), l, "/items.json", Options[payload]{SkipCache: true})
		}()
	}
	wg.Wait()
	return results
}

// releaseAfterJoins closes release once n callers are registered with the
// shared retrieval.
func releaseAfterJoins(l *Loader, src *countingSource, n int32) {
	var joined atomic.Int32
	l.joined = func(string) {
		if joined.Add(1) == n {
			close(src.release)
		}
	}
}

func (suite *LoaderTestSuite) TestConcurrentMissesShareOneRetrieval() {
	src := &countingSource{release: make(chan struct{})}
	l, err := New(cache.NewMemoryCache(), src, Config{Coalesce: true}, quietLogger())
	suite.Require().NoError(err)
	releaseAfterJoins(l, src, 8)

	results := runConcurrentFetches(l, 8)

	suite.Equal(int32(1), src.calls.Load())
	for _, r := range results {
		suite.Equal([]string{"shared"}, r.Items)
	}
}

func (suite *LoaderTestSuite) TestCanceledCallerDoesNotFailSharedRetrieval() {
	src := &countingSource{release: make(chan struct{})}
	l, err := New(cache.NewMemoryCache(), src, Config{Coalesce: true}, quietLogger())
	suite.Require().NoError(err)

	joins := make(chan struct{}, 2)
	l.joined = func(string) { joins <- struct{}{} }

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := FetchData[payload](leaderCtx, l, "/items.json", Options[payload]{})
		leaderErr <- err
	}()
	<-joins

	type result struct {
		v   payload
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, err := FetchData[payload](context.Background(), l, "/items.json", Options[payload]{})
		follower <- result{v, err}
	}()
	<-joins

	cancelLeader()
	err = <-leaderErr
	suite.ErrorIs(err, context.Canceled)
	suite.ErrorIs(err, domain.ErrRetrieval)

	close(src.release)
	got := <-follower
	suite.Require().NoError(got.err)
	suite.Equal([]string{"shared"}, got.v.Items)
	suite.Equal(int32(1), src.calls.Load())

	// the surviving caller still caches the result
	suite.Equal(1, l.CacheStats(context.Background()).Size)
}

func (suite *LoaderTestSuite) TestConcurrentMissesWithoutCoalescing() {
	src := &countingSource{release: make(chan struct{})}
	l, err := New(cache.NewMemoryCache(), src, Config{Coalesce: false}, quietLogger())
	suite.Require().NoError(err)

	go func() {
		suite.Eventually(func() bool { return src.calls.Load() == 4 }, time.Second, time.Millisecond)
		close(src.release)
	}()
	runConcurrentFetches(l, 4)

	suite.Equal(int32(4), src.calls.Load())
}
