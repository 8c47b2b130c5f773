package redis

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/trademark-screening/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientWithRDB(db, config.RedisConfig{KeyPrefix: "test:"}, logging.NewNopLogger())
	s.cache = NewRedisCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithJitter(0))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type testEntry struct {
	Name  string `json:"name"`
	Large bool   `json:"large"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	s.mock.ExpectGet("test:k1").SetVal(`{"name":"삼성","large":true}`)

	var dest testEntry
	require.NoError(s.T(), s.cache.Get(context.Background(), "k1", &dest))
	assert.Equal(s.T(), testEntry{Name: "삼성", Large: true}, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest testEntry
	assert.Equal(s.T(), ErrCacheMiss, s.cache.Get(context.Background(), "k1", &dest))
}

func (s *CacheTestSuite) TestGet_NullMarker() {
	s.mock.ExpectGet("test:k1").SetVal(nullMarker)

	var dest testEntry
	assert.Equal(s.T(), ErrCacheMiss, s.cache.Get(context.Background(), "k1", &dest))
}

func (s *CacheTestSuite) TestGet_Error() {
	s.mock.ExpectGet("test:k1").SetErr(stderrors.New("LOADING"))

	var dest testEntry
	err := s.cache.Get(context.Background(), "k1", &dest)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_UsesExactTTLWithoutJitter() {
	s.mock.ExpectSet("test:k1", []byte(`{"name":"x","large":false}`), time.Minute).SetVal("OK")

	require.NoError(s.T(), s.cache.Set(context.Background(), "k1", testEntry{Name: "x"}, time.Minute))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)
	require.NoError(s.T(), s.cache.Delete(context.Background(), "k1", "k2"))
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	s.mock.ExpectGet("test:k1").SetVal(`{"name":"hit"}`)

	var dest testEntry
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		s.T().Fatal("loader must not run on a hit")
		return nil, nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "hit", dest.Name)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestGetOrSet_LoadsOncePerKey(t *testing.T) {
	client, mr := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithJitter(0))

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return testEntry{Name: "loaded"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var dest testEntry
			assert.NoError(t, cache.GetOrSet(context.Background(), "shared", &dest, time.Minute, loader))
			assert.Equal(t, "loaded", dest.Name)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
	assert.True(t, mr.Exists(config.DefaultRedisPrefix+"cache:shared"))
}

func TestGetOrSet_NilIsNegativelyCached(t *testing.T) {
	client, mr := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger())

	var dest testEntry
	err := cache.GetOrSet(context.Background(), "none", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.Equal(t, ErrCacheMiss, err)

	got, _ := mr.Get(config.DefaultRedisPrefix + "cache:none")
	assert.Equal(t, nullMarker, got)
}

func TestGetOrSet_LoaderError(t *testing.T) {
	client, _ := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger())

	boom := pkgerrors.Unavailable("search index", nil)
	var dest testEntry
	err := cache.GetOrSet(context.Background(), "err", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.Equal(t, boom, err)
}

func TestGetOrSet_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	client, _ := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithJitter(0))

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return testEntry{Name: "samsʌŋ"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		var dest testEntry
		errA <- cache.GetOrSet(ctxA, "translit", &dest, time.Minute, loader)
	}()
	<-started

	errB := make(chan error, 1)
	var destB testEntry
	go func() {
		errB <- cache.GetOrSet(context.Background(), "translit", &destB, time.Minute, loader)
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	require.NoError(t, <-errB)
	assert.Equal(t, "samsʌŋ", destB.Name)
}

func TestGetOrSet_LoadIsBounded(t *testing.T) {
	client, _ := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithLoadTimeout(20*time.Millisecond))

	var dest testEntry
	err := cache.GetOrSet(context.Background(), "slow", &dest, time.Minute, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOrSet_LoaderPanicIsError(t *testing.T) {
	client, _ := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger())

	var dest testEntry
	err := cache.GetOrSet(context.Background(), "panic", &dest, time.Minute, func(context.Context) (interface{}, error) {
		panic("registry closed")
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrCodeCheckComputation, pkgerrors.As(err, pkgerrors.ErrCodeCacheError).Code)
}
