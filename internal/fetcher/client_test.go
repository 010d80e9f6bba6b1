package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func immediatePolicy(maxAttempts int) RetryPolicy {
	policy := DefaultRetryPolicy(maxAttempts, 0)
	policy.Backoff = func(int) time.Duration { return 0 }
	return policy
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, Policy: immediatePolicy(3)}, noopLogger())
	body, err := client.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("503 两次后应成功: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("响应体不正确: %q", body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("应请求 3 次, 实际 %d", got)
	}
}

func TestClientStopsOnNonRetryableStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, Policy: immediatePolicy(3)}, noopLogger())
	_, err := client.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("404 应报错")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("应返回 *FetchError, 实际 %T", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Fatalf("status 应为 404, 实际 %d", fetchErr.Status)
	}
	if fetchErr.Attempts != 1 {
		t.Fatalf("不可重试状态应只请求一次, 实际 %d", fetchErr.Attempts)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("应请求 1 次, 实际 %d", got)
	}
}

func TestClientDefaultsPartialPolicy(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// 仅设置 MaxAttempts, Backoff/Retryable 留空, 应落到默认实现而非崩溃。
	client := NewClient(ClientOptions{Timeout: time.Second, Policy: RetryPolicy{MaxAttempts: 2}}, noopLogger())
	_, err := client.Get(context.Background(), srv.URL, nil)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("应返回 *FetchError, 实际 %v", err)
	}
	if fetchErr.Attempts != 1 {
		t.Fatalf("默认谓词下 404 不可重试, 应只请求一次, 实际 %d", fetchErr.Attempts)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("应请求 1 次, 实际 %d", got)
	}
}

func TestClientExhaustsRetryBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, Policy: immediatePolicy(3)}, noopLogger())
	_, err := client.Get(context.Background(), srv.URL, nil)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("应返回 *FetchError, 实际 %v", err)
	}
	if fetchErr.Attempts != 3 {
		t.Fatalf("重试预算应耗尽为 3 次, 实际 %d", fetchErr.Attempts)
	}
}

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var ua, al string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		al = r.Header.Get("Accept-Language")
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{
		Timeout:        time.Second,
		UserAgent:      "Mozilla/5.0 test",
		AcceptLanguage: "ko-KR,ko;q=0.9",
		Policy:         immediatePolicy(1),
	}, noopLogger())

	if _, err := client.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if ua != "Mozilla/5.0 test" {
		t.Fatalf("User-Agent 不正确: %q", ua)
	}
	if al != "ko-KR,ko;q=0.9" {
		t.Fatalf("Accept-Language 不正确: %q", al)
	}
}

func TestDownloadTempCleanup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Timeout: time.Second, Policy: immediatePolicy(1)}, noopLogger())
	path, cleanup, err := client.DownloadTemp(context.Background(), srv.URL, "dl-*.pdf")
	if err != nil {
		t.Fatalf("下载应成功: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("临时文件应存在: %v", err)
	}
	cleanup()
	if _, err := os.Stat(path); err == nil {
		t.Fatal("cleanup 后文件应被删除")
	}
}
