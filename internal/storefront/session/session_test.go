package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockLoader answers Load with whatever is sent on release, or blocks until ctx ends.
type mockLoader struct {
	release chan loadResult
	calls   atomic.Int32
	aborted atomic.Bool
}

func newMockLoader() *mockLoader {
	return &mockLoader{release: make(chan loadResult, 1)}
}

func (m *mockLoader) Load(ctx context.Context) ([]state.Product, error) {
	m.calls.Add(1)
	select {
	case res := <-m.release:
		return res.products, res.err
	case <-ctx.Done():
		m.aborted.Store(true)
		return nil, &catalog.FetchError{Reason: "network", Err: ctx.Err()}
	}
}

func products() []state.Product {
	return []state.Product{
		{ID: 1, Name: "Shirt", Price: decimal.NewFromInt(10), Category: state.Men},
		{ID: 2, Name: "Dress", Price: decimal.NewFromInt(20), Category: state.Women},
	}
}

// slowTimers keeps the timers out of the way of intent tests.
var slowTimers = Config{Slides: 3, CarouselInterval: time.Hour, NewsletterDelay: time.Hour, ResetOnNavigate: true}

func startSession(t *testing.T, cfg Config, loader catalog.Loader) *Session {
	t.Helper()
	s, err := Start("test", cfg, loader, discard, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStart_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         Config
		expectedErr error
	}{
		{name: "no slides", cfg: Config{Slides: 0, CarouselInterval: time.Second, NewsletterDelay: time.Second}, expectedErr: state.ErrNoSlides},
		{name: "zero interval", cfg: Config{Slides: 1, CarouselInterval: 0, NewsletterDelay: time.Second}},
		{name: "zero newsletter delay", cfg: Config{Slides: 1, CarouselInterval: time.Second}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Start("x", tc.cfg, newMockLoader(), discard, nil)
			require.Error(t, err)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})
	}
}

func TestSession_LoadingThenReady(t *testing.T) {
	// given
	loader := newMockLoader()
	s := startSession(t, slowTimers, loader)
	require.Equal(t, state.CatalogLoading, s.Snapshot().Catalog.Status())
	assert.Empty(t, s.Snapshot().VisibleProducts())

	// when
	loader.release <- loadResult{products: products()}

	// then
	require.Eventually(t, func() bool {
		return s.Snapshot().Catalog.Status() == state.CatalogReady
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, s.Snapshot().VisibleProducts(), 2)
	assert.Equal(t, int32(1), loader.calls.Load(), "catalog is fetched once per session")
}

func TestSession_LoadFailureShowsError(t *testing.T) {
	loader := newMockLoader()
	s := startSession(t, slowTimers, loader)

	loader.release <- loadResult{err: &catalog.FetchError{Reason: "unexpected status 500"}}

	require.Eventually(t, func() bool {
		return s.Snapshot().Catalog.Status() == state.CatalogError
	}, time.Second, 5*time.Millisecond)
	st := s.Snapshot()
	assert.Equal(t, state.FetchErrorMessage, st.Catalog.Error())
	assert.Nil(t, st.Catalog.Products())
}

func TestSession_DispatchAppliesInOrder(t *testing.T) {
	// given
	loader := newMockLoader()
	loader.release <- loadResult{products: products()}
	s := startSession(t, slowTimers, loader)
	ctx := context.Background()

	// when
	_, err := s.Dispatch(ctx, state.AddToCart{ProductID: 1})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, state.AddToCart{ProductID: 1})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, state.ToggleWishlist{ProductID: 2})
	require.NoError(t, err)
	st, err := s.Dispatch(ctx, state.SelectCategory{Category: state.Women})
	require.NoError(t, err)

	// then
	assert.Equal(t, []int64{1, 1}, st.Ledger.Cart)
	assert.Equal(t, []int64{2}, st.Ledger.Wishlist)
	assert.Equal(t, state.Women, st.Category)
	assert.Equal(t, st.Ledger, s.Snapshot().Ledger, "badges read the same state immediately")
}

func TestSession_ConcurrentDispatchIsSerialized(t *testing.T) {
	s := startSession(t, slowTimers, newMockLoader())
	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.Dispatch(context.Background(), state.AddToCart{ProductID: 7})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.Len(t, s.Snapshot().Ledger.Cart, n)
}

func TestSession_CarouselAutoAdvance(t *testing.T) {
	cfg := Config{Slides: 3, CarouselInterval: 20 * time.Millisecond, NewsletterDelay: time.Hour}
	s := startSession(t, cfg, newMockLoader())

	require.Eventually(t, func() bool {
		return s.Snapshot().Carousel.Index != 0
	}, time.Second, 5*time.Millisecond)
	idx := s.Snapshot().Carousel.Index
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 3)
}

func TestSession_ManualNavigationResetsTimer(t *testing.T) {
	// given
	cfg := Config{Slides: 3, CarouselInterval: 300 * time.Millisecond, NewsletterDelay: time.Hour, ResetOnNavigate: true}
	s := startSession(t, cfg, newMockLoader())
	time.Sleep(100 * time.Millisecond)

	// when
	st, err := s.Dispatch(context.Background(), state.NextSlide{})
	require.NoError(t, err)
	require.Equal(t, 1, st.Carousel.Index)
	time.Sleep(250 * time.Millisecond)

	// then
	assert.Equal(t, 1, s.Snapshot().Carousel.Index, "the tick due before navigation+interval was pushed back")
	require.Eventually(t, func() bool {
		return s.Snapshot().Carousel.Index == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSession_NewsletterShownOnceAfterDelay(t *testing.T) {
	cfg := Config{Slides: 1, CarouselInterval: time.Hour, NewsletterDelay: 20 * time.Millisecond}
	s := startSession(t, cfg, newMockLoader())
	assert.False(t, s.Snapshot().Newsletter.Visible)

	require.Eventually(t, func() bool {
		return s.Snapshot().Newsletter.Visible
	}, time.Second, 5*time.Millisecond)

	st, err := s.Dispatch(context.Background(), state.DismissNewsletter{})
	require.NoError(t, err)
	assert.False(t, st.Newsletter.Visible)
	time.Sleep(60 * time.Millisecond)
	assert.False(t, s.Snapshot().Newsletter.Visible)
}

func TestSession_CloseStopsTimersAndDropsLateLoad(t *testing.T) {
	// given
	cfg := Config{Slides: 3, CarouselInterval: 10 * time.Millisecond, NewsletterDelay: 10 * time.Millisecond}
	loader := newMockLoader()
	s, err := Start("closing", cfg, loader, discard, nil)
	require.NoError(t, err)

	// when
	s.Close()
	frozen := s.Snapshot()
	time.Sleep(50 * time.Millisecond)

	// then
	select {
	case <-s.Done():
	default:
		t.Fatal("loop still running after Close")
	}
	assert.Equal(t, frozen, s.Snapshot(), "no timer fires after teardown")
	assert.Equal(t, state.CatalogLoading, s.Snapshot().Catalog.Status(), "late load result is ignored")
	require.Eventually(t, loader.aborted.Load, time.Second, 5*time.Millisecond, "in-flight fetch is cancelled")

	_, err = s.Dispatch(context.Background(), state.AddToCart{ProductID: 1})
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestSession_DispatchHonoursCallerContext(t *testing.T) {
	s := startSession(t, slowTimers, newMockLoader())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Dispatch(ctx, state.AddToCart{ProductID: 1})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSession_OnApplySeesEveryIntent(t *testing.T) {
	var kinds []string
	loader := newMockLoader()
	loader.release <- loadResult{products: products()}
	s, err := Start("obs", slowTimers, loader, discard, func(in state.Intent) { kinds = append(kinds, in.Kind()) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Snapshot().Catalog.Status() == state.CatalogReady }, time.Second, 5*time.Millisecond)
	_, err = s.Dispatch(context.Background(), state.Search{Query: "shoes"})
	require.NoError(t, err)
	s.Close()

	assert.Equal(t, []string{"catalog-loaded", "search"}, kinds)
}
