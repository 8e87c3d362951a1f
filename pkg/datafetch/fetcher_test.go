package datafetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type recordedSleep struct {
	waits []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func TestBuildURL(t *testing.T) {
	f := New(Config{BaseURL: "http://localhost:8000/"})
	cases := map[string]string{
		"/companies/":        "http://localhost:8000/companies",
		"companies":          "http://localhost:8000/companies",
		"/api/social-media/": "http://localhost:8000/api/social-media",
		"":                   "http://localhost:8000/",
	}
	for in, want := range cases {
		if got := f.BuildURL(in); got != want {
			t.Fatalf("BuildURL(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(time.Second, 10*time.Second, 2)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := b.Next(i); got != w {
			t.Fatalf("Next(%d)=%v want=%v", i, got, w)
		}
	}
}

func TestFetchDataRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept=%q", r.Header.Get("Accept"))
		}
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL, MaxRetries: Retries(3)}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	data, err := f.FetchData(context.Background(), "/api/contacts/")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if string(data) != `[{"id":1}]` || string(f.Data()) != `[{"id":1}]` {
		t.Fatalf("data=%s stored=%s", data, f.Data())
	}
	if calls != 3 {
		t.Fatalf("calls=%d want=3", calls)
	}
	if len(rs.waits) != 2 || rs.waits[0] != time.Second || rs.waits[1] != 2*time.Second {
		t.Fatalf("waits=%v", rs.waits)
	}
	if f.IsLoading() || f.LastError() != "" {
		t.Fatalf("state=%+v", f.State())
	}
}

func TestFetchDataExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL, MaxRetries: Retries(3)}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	f.SetData(json.RawMessage(`{"old":true}`))

	_, err := f.FetchData(context.Background(), "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != 503 || fe.Attempts != 4 {
		t.Fatalf("err=%#v", err)
	}
	if calls != 4 {
		t.Fatalf("calls=%d want=4", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(rs.waits) != len(want) {
		t.Fatalf("waits=%v want=%v", rs.waits, want)
	}
	for i := range want {
		if rs.waits[i] != want[i] {
			t.Fatalf("waits=%v want=%v", rs.waits, want)
		}
	}
	st := f.State()
	if st.IsLoading {
		t.Fatalf("still loading")
	}
	if st.Err != "HTTP error! Status: 503" {
		t.Fatalf("err=%q", st.Err)
	}
	if string(st.Data) != `{"old":true}` {
		t.Fatalf("data changed: %s", st.Data)
	}
}

func TestFetchDataInvalidJSONIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`<html>`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":1}`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	if _, err := f.FetchData(context.Background(), "/"); err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if calls != 2 || len(rs.waits) != 1 {
		t.Fatalf("calls=%d waits=%v", calls, rs.waits)
	}
}

func TestFetchDataWithMaxRetriesZero(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	_, err := f.FetchData(context.Background(), "/", WithMaxRetries(0), WithHeader("X-Trace", "1"))
	if StatusOf(err) != 500 {
		t.Fatalf("err=%v", err)
	}
	if calls != 1 || len(rs.waits) != 0 {
		t.Fatalf("calls=%d waits=%v", calls, rs.waits)
	}
}

func TestFetchDataStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()), WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))
	_, err := f.FetchData(ctx, "/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if f.IsLoading() {
		t.Fatalf("still loading")
	}
}

func TestPostDataSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL, MaxRetries: Retries(3)}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	_, err := f.PostData(context.Background(), "/api/submit-contact/", map[string]string{"name": "a"})
	if StatusOf(err) != 503 {
		t.Fatalf("err=%v", err)
	}
	if calls != 1 || len(rs.waits) != 0 {
		t.Fatalf("calls=%d waits=%v", calls, rs.waits)
	}
	if f.LastError() != "HTTP error! Status: 503" || f.IsLoading() {
		t.Fatalf("state=%+v", f.State())
	}
}

func TestPostDataSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method=%s ct=%q", r.Method, r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != `{"name":"Ana"}` {
			t.Errorf("body=%s", b)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	f := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()))
	f.SetData(json.RawMessage(`[1]`))
	out, err := f.PostData(context.Background(), "/submit", map[string]string{"name": "Ana"})
	if err != nil {
		t.Fatalf("PostData: %v", err)
	}
	res, err := Decode[struct {
		Success bool `json:"success"`
	}](out)
	if err != nil || !res.Success {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if string(f.Data()) != `[1]` {
		t.Fatalf("post touched data: %s", f.Data())
	}
}

func TestClearErrorAndData(t *testing.T) {
	f := New(DefaultConfig())
	f.SetData(json.RawMessage(`1`))
	f.mu.Lock()
	f.errMsg = "boom"
	f.mu.Unlock()
	f.ClearError()
	f.ClearData()
	if f.LastError() != "" || f.Data() != nil {
		t.Fatalf("state=%+v", f.State())
	}
}

func TestZeroConfigRetriesThreeTimes(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	if got := *f.Config().MaxRetries; got != DefaultMaxRetries {
		t.Fatalf("MaxRetries=%d want=%d", got, DefaultMaxRetries)
	}
	_, err := f.FetchData(context.Background(), "/x")
	if StatusOf(err) != 500 {
		t.Fatalf("err=%v", err)
	}
	if calls != 4 {
		t.Fatalf("calls=%d want=4", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(rs.waits) != len(want) {
		t.Fatalf("waits=%v want=%v", rs.waits, want)
	}
	for i := range want {
		if rs.waits[i] != want[i] {
			t.Fatalf("waits=%v want=%v", rs.waits, want)
		}
	}
}

func TestExplicitZeroRetriesIsSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	f := New(Config{BaseURL: srv.URL, MaxRetries: Retries(0)}, WithHTTPClient(srv.Client()), WithSleep(rs.sleep))
	if _, err := f.FetchData(context.Background(), "/x"); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 || len(rs.waits) != 0 {
		t.Fatalf("calls=%d waits=%v", calls, rs.waits)
	}
}
