package contentcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFetchContent_CachesBody(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("<html>" + url + "</html>"), nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		body, err := c.FetchContent(ctx, "https://example.com/a")
		if err != nil {
			t.Fatalf("FetchContent: %v", err)
		}
		if string(body) != "<html>https://example.com/a</html>" {
			t.Fatalf("body: got %q", body)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls: got %d, want 1", got)
	}
	if !c.Cached("https://example.com/a") {
		t.Error("Cached: want true after resolve")
	}
	if c.Cached("https://example.com/b") {
		t.Error("Cached: want false for never-fetched URL")
	}
}

func TestFetchContent_ConcurrentCallersShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []byte("shared"), nil
	})

	const n = 8
	var wg, entered sync.WaitGroup
	results := make([][]byte, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		entered.Add(1)
		go func(i int) {
			defer wg.Done()
			entered.Done()
			results[i], errs[i] = c.FetchContent(context.Background(), "https://example.com")
		}(i)
	}

	// Release the in-flight fetch once it has started and every caller
	// is on its way in; everyone behind it shares the result.
	entered.Wait()
	<-started
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls: got %d, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if string(results[i]) != "shared" {
			t.Fatalf("caller %d: got %q", i, results[i])
		}
	}
}

func TestFetchContent_FailureNotCached(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("network down")
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return []byte("recovered"), nil
	})

	ctx := context.Background()
	if _, err := c.FetchContent(ctx, "https://example.com"); !errors.Is(err, boom) {
		t.Fatalf("first fetch: got %v, want %v", err, boom)
	}
	if c.Cached("https://example.com") {
		t.Fatal("failed fetch must not leave a cache entry")
	}

	body, err := c.FetchContent(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if string(body) != "recovered" {
		t.Fatalf("retry body: got %q", body)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls: got %d, want 2", got)
	}
}

func TestClearCache_ForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(fmt.Sprintf("version %d", calls.Add(1))), nil
	})

	ctx := context.Background()
	first, _ := c.FetchContent(ctx, "https://example.com")
	c.ClearCache("https://example.com")
	second, err := c.FetchContent(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("refetch returned stale body %q", second)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls: got %d, want 2", got)
	}
}

func TestClearCache_OtherURLsUntouched(t *testing.T) {
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(url), nil
	})

	ctx := context.Background()
	c.FetchContent(ctx, "https://a.example")
	c.FetchContent(ctx, "https://b.example")
	c.ClearCache("https://a.example")

	if c.Cached("https://a.example") {
		t.Error("cleared URL still cached")
	}
	if !c.Cached("https://b.example") {
		t.Error("unrelated URL evicted")
	}
}

func TestClear_DropsEverything(t *testing.T) {
	c := New(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(url), nil
	})

	ctx := context.Background()
	c.FetchContent(ctx, "https://a.example")
	c.FetchContent(ctx, "https://b.example")
	c.Clear()

	if c.Cached("https://a.example") || c.Cached("https://b.example") {
		t.Error("Clear left cached bodies behind")
	}
}
