package rest_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	rk "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/rest"
	"github.com/emberwatch/recordkit/schema"
)

func ticketSchema(t *testing.T) rk.Schema {
	t.Helper()
	s, err := schema.Object().
		Field("propertyName", schema.String()).Required().
		Field("notes", schema.String()).
		Passthrough("id", "createdAt", "updatedAt").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func newClient(t *testing.T, srv *httptest.Server, onAuth func()) *rest.Client {
	t.Helper()
	c := rest.NewClient(rest.Config{
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		OnAuthExpired: onAuth,
	})
	if err := c.SignIn(context.Background(), "ops@example.com", "hunter2"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return c
}

// authStub handles /auth/sign_in and delegates everything else.
func authStub(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/sign_in" {
			fmt.Fprint(w, `{"data":{"token":"opaque-session-token","user_id":"u-17","role":"office"}}`)
			return
		}
		next(w, r)
	}
}

func TestSignIn_StoresSession(t *testing.T) {
	srv := httptest.NewServer(authStub(nil))
	defer srv.Close()

	c := newClient(t, srv, nil)
	s := c.Session()
	if s.Token != "opaque-session-token" || s.UserID != "u-17" || s.Role != "office" {
		t.Fatalf("session not stored: %+v", s)
	}
	c.SignOut()
	if c.Session().Valid() {
		t.Fatalf("session survived sign-out")
	}
}

func TestList_ReadAfterWrite(t *testing.T) {
	var hits int32
	var mu sync.Mutex
	latest := "Pier 9"

	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&hits, 1)
			fmt.Fprintf(w, `{"data":{"service_tickets":[{"id":"1","propertyName":%q}],"pagination":{"total_count":1,"page":1,"page_count":1}}}`, latest)
		case http.MethodPost:
			latest = "Main St Warehouse"
			fmt.Fprint(w, `{"data":{"service_tickets":{"id":"2","propertyName":"Main St Warehouse"}}}`)
		}
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("service_tickets", ticketSchema(t))
	ctx := context.Background()

	if _, err := res.List(ctx, rest.Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	// cached: no extra round trip
	if _, err := res.List(ctx, rest.Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 GET before the write, got %d", n)
	}

	created, err := res.Create(ctx, map[string]any{"propertyName": "Main St Warehouse"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created["id"] != "2" {
		t.Fatalf("server-canonical record not returned: %v", created)
	}

	// the write invalidated the cache; this read sees the new row
	p, err := res.List(ctx, rest.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected a fresh GET after the write, got %d", n)
	}
	if p.TotalCount != 1 || p.Items[0]["propertyName"] != "Main St Warehouse" {
		t.Fatalf("stale list after write: %+v", p)
	}
}

func TestList_CoalescesConcurrentReads(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		fmt.Fprint(w, `{"data":{"work_orders":[],"pagination":{"total_count":0,"page":1,"page_count":0}}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("work_orders", ticketSchema(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := res.List(ctx, rest.Filter{Page: 1}); err != nil {
				t.Errorf("list: %v", err)
			}
		}()
	}
	// let the goroutines pile onto the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 coalesced round trip, got %d", n)
	}
}

func TestInFlightReadNotCachedAcrossWrite(t *testing.T) {
	var hits int32
	block := make(chan struct{})
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			n := atomic.AddInt32(&hits, 1)
			if n == 1 {
				<-block // first read is slow; a write lands meanwhile
			}
			fmt.Fprint(w, `{"data":{"customers":[],"pagination":{"total_count":0,"page":1,"page_count":0}}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("customers", ticketSchema(t))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		res.List(ctx, rest.Filter{})
	}()
	time.Sleep(50 * time.Millisecond)
	c.Invalidate("customers")
	close(block)
	<-done

	// the pre-write response must not serve this read
	if _, err := res.List(ctx, rest.Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("stale in-flight response was cached: %d GETs", n)
	}
}

func TestAuthFailure_TearsDownOnce(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"token revoked"}`)
	}))
	defer srv.Close()

	var authCalls int32
	c := newClient(t, srv, func() { atomic.AddInt32(&authCalls, 1) })
	res := c.Resource("users", ticketSchema(t))

	_, err := res.List(context.Background(), rest.Filter{})
	if !rest.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	re := err.(*rest.RequestError)
	if re.Status != 401 || re.Message != "token revoked" {
		t.Fatalf("wrong error detail: %+v", re)
	}
	// no automatic retry
	if n := atomic.LoadInt32(&gets); n != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", n)
	}
	if n := atomic.LoadInt32(&authCalls); n != 1 {
		t.Fatalf("expected OnAuthExpired once, got %d", n)
	}
	if c.Session().Valid() {
		t.Fatalf("session not torn down")
	}

	// a later failure on the already-dead session must not fire the hook
	// again: it only reports the valid-to-cleared transition
	if _, err := res.List(context.Background(), rest.Filter{}); !rest.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if n := atomic.LoadInt32(&authCalls); n != 1 {
		t.Fatalf("hook fired on a dead session: %d calls", n)
	}
}

func TestExpiredToken_ShortCircuits(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	store := rest.NewMemoryStore()
	store.Set(rest.Session{Token: signed, UserID: "u-17", Role: "office"})
	var authCalls int32
	c := rest.NewClient(rest.Config{
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		Session:       store,
		OnAuthExpired: func() { atomic.AddInt32(&authCalls, 1) },
	})

	_, err = c.Resource("users", ticketSchema(t)).List(context.Background(), rest.Filter{})
	if !rest.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if n := atomic.LoadInt32(&gets); n != 0 {
		t.Fatalf("dead token must not reach the server, got %d requests", n)
	}
	if store.Get().Valid() {
		t.Fatalf("session not cleared")
	}
	if n := atomic.LoadInt32(&authCalls); n != 1 {
		t.Fatalf("expected OnAuthExpired once, got %d", n)
	}
}

func TestCreate_ValidationFailureSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("service_tickets", ticketSchema(t))

	input := map[string]any{"notes": "check the riser"}
	_, err := res.Create(context.Background(), input)
	iss, ok := rk.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Path != "propertyName" {
		t.Fatalf("expected required issue, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("invalid record must not reach the server, got %d requests", n)
	}
	// caller's input survives for correction and resubmit
	if input["notes"] != "check the riser" || len(input) != 1 {
		t.Fatalf("input mutated: %v", input)
	}
}

func TestUpdate_ValidatesDefaultsPlusPatch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	sch := schema.Object().
		Field("conformsToAcceptedPlans", schema.Bool()).Default(true).
		Field("deviationsExplanation", schema.String()).
		RequireWhen("deviationsExplanation", "explain_deviations",
			schema.WhenFalse("conformsToAcceptedPlans")).
		MustBuild()

	c := newClient(t, srv, nil)
	res := c.Resource("above_ground_tests", sch)
	ctx := context.Background()

	// flipping the gate without an explanation fails against the merged
	// view before anything goes over the wire
	_, err := res.Update(ctx, "5", map[string]any{"conformsToAcceptedPlans": false})
	iss, ok := rk.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Path != "deviationsExplanation" {
		t.Fatalf("expected conditional issue, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("invalid patch must not reach the server, got %d requests", n)
	}

	// a patch that omits the gate is judged against the schema default
	// (true), so no explanation is demanded client-side
	if _, err := res.Update(ctx, "5", map[string]any{"deviationsExplanation": ""}); err != nil {
		t.Fatalf("patch without the gate should pass, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected the PATCH to go out, got %d requests", n)
	}
}

func TestUpdate_ApplicationErrorCarriesFields(t *testing.T) {
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"validation failed","errors":{"propertyName":"already taken"}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("customers", ticketSchema(t))

	_, err := res.Update(context.Background(), "9", map[string]any{"propertyName": "Pier 9"})
	if !rest.IsApplication(err) {
		t.Fatalf("expected application error, got %v", err)
	}
	re := err.(*rest.RequestError)
	if re.Fields["propertyName"] != "already taken" {
		t.Fatalf("field errors lost: %+v", re)
	}
}

func TestGet_MergesOverDefaults(t *testing.T) {
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"customers":{"id":"3","propertyName":"Pier 9"}}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	rec, err := c.Resource("customers", ticketSchema(t)).Get(context.Background(), "3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// notes was never stored; it still reads as a defined value
	if v, ok := rec["notes"]; !ok || v != "" {
		t.Fatalf("missing default for notes: %v", rec)
	}
	if rec["id"] != "3" {
		t.Fatalf("passthrough id lost: %v", rec)
	}
}

func TestDelete_EvictsCachedGet(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			fmt.Fprint(w, `{"data":{"customers":{"id":"3","propertyName":"Pier 9"}}}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	res := c.Resource("customers", ticketSchema(t))
	ctx := context.Background()

	if _, err := res.Get(ctx, "3"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := res.Get(ctx, "3"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if n := atomic.LoadInt32(&gets); n != 1 {
		t.Fatalf("expected cached second get, got %d", n)
	}

	if err := res.Delete(ctx, "3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := res.Get(ctx, "3"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if n := atomic.LoadInt32(&gets); n != 2 {
		t.Fatalf("delete must evict the cached record, got %d gets", n)
	}
}

func TestSignedURL_Passthrough(t *testing.T) {
	srv := httptest.NewServer(authStub(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/documents/signed_url" || r.URL.Query().Get("key") != "tickets/9/signature.png" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		fmt.Fprint(w, `{"data":{"url":"https://cdn.example.com/signed/abc"}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	u, err := c.SignedURL(context.Background(), "tickets/9/signature.png")
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if u != "https://cdn.example.com/signed/abc" {
		t.Fatalf("wrong url: %q", u)
	}
}
