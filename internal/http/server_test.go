package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expensebook/internal/aggregate"
	"expensebook/internal/core"
	"expensebook/internal/store"
	"expensebook/internal/workbook"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, loaded bool, opts Options) (*Server, *store.Store) {
	t.Helper()
	st := store.New(nil)
	if loaded {
		if _, err := st.Dispatch(store.Load{State: store.Empty()}); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.ExportYear == 0 {
		opts.ExportYear = 2026
	}
	srv := NewServer(":0", st, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeMonth(t *testing.T, rr *httptest.ResponseRecorder) core.MonthOverview {
	t.Helper()
	var ov core.MonthOverview
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode month: %v (%s)", err, rr.Body.String())
	}
	return ov
}

func TestHealthAndReadiness(t *testing.T) {
	srv, st := newTestServer(t, false, Options{})

	if rr := do(t, srv, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load status=%d", rr.Code)
	}

	if _, err := st.Dispatch(store.Load{State: store.Empty()}); err != nil {
		t.Fatal(err)
	}
	rr := do(t, srv, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ready"`) {
		t.Fatalf("readyz after load status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMutationsWaitForHydration(t *testing.T) {
	srv, st := newTestServer(t, false, Options{})

	rr := do(t, srv, http.MethodPost, "/api/months/jan/expenses", "application/json",
		[]byte(`{"name":"Rent","date":1,"amount":"1200","primary":"Housing"}`))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before hydration, got %d", rr.Code)
	}
	if st.Revision() != 0 {
		t.Fatalf("nothing should have been dispatched")
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, true, Options{})

	rr := do(t, srv, http.MethodPost, "/api/months/jan/expenses", "application/json",
		[]byte(`{"name":"Rent","date":1,"amount":"1200,50","primary":"Housing","secondary":"Rent"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	ov := decodeMonth(t, rr)
	if len(ov.Expenses) != 1 || ov.Total != 1200.5 {
		t.Fatalf("unexpected month after create: %+v", ov)
	}

	// Form bodies default the day to today.
	rr = do(t, srv, http.MethodPost, "/api/months/January/expenses", "application/x-www-form-urlencoded",
		[]byte("name=Coffee&amount=3.5&primary=Out&secondary=Bar"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("form create status=%d body=%s", rr.Code, rr.Body.String())
	}
	ov = decodeMonth(t, rr)
	if len(ov.Expenses) != 2 || ov.Expenses[1].Date != 15 || ov.Expenses[1].Name != "Coffee" {
		t.Fatalf("expected coffee dated 15 sorted last: %+v", ov.Expenses)
	}

	rr = do(t, srv, http.MethodPut, "/api/months/jan/expenses/1", "application/json",
		[]byte(`{"name":"Espresso","date":2,"amount":2,"primary":"Out","secondary":"Bar"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	ov = decodeMonth(t, rr)
	if ov.Expenses[1].Name != "Espresso" || ov.Expenses[1].Amount != 2 {
		t.Fatalf("update not applied: %+v", ov.Expenses)
	}

	rr = do(t, srv, http.MethodDelete, "/api/months/jan/expenses/7", "", nil)
	if rr.Code != http.StatusOK || len(decodeMonth(t, rr).Expenses) != 2 {
		t.Fatalf("out of range delete should be a no-op, status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/months/jan/expenses/0", "", nil)
	ov = decodeMonth(t, rr)
	if len(ov.Expenses) != 1 || ov.Expenses[0].Name != "Espresso" {
		t.Fatalf("delete removed the wrong record: %+v", ov.Expenses)
	}

	rr = do(t, srv, http.MethodGet, "/api/months/jan", "", nil)
	if rr.Code != http.StatusOK || decodeMonth(t, rr).Total != 2 {
		t.Fatalf("get month status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestExpenseErrors(t *testing.T) {
	srv, _ := newTestServer(t, true, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad amount", http.MethodPost, "/api/months/jan/expenses", `{"name":"x","date":1,"amount":"abc","primary":"Out"}`, http.StatusUnprocessableEntity},
		{"zero amount", http.MethodPost, "/api/months/jan/expenses", `{"name":"x","date":1,"amount":"0","primary":"Out"}`, http.StatusUnprocessableEntity},
		{"missing name", http.MethodPost, "/api/months/jan/expenses", `{"date":1,"amount":"1","primary":"Out"}`, http.StatusUnprocessableEntity},
		{"bad day", http.MethodPost, "/api/months/jan/expenses", `{"name":"x","date":"32","amount":"1","primary":"Out"}`, http.StatusUnprocessableEntity},
		{"unknown primary", http.MethodPost, "/api/months/jan/expenses", `{"name":"x","date":1,"amount":"1","primary":"Pets"}`, http.StatusUnprocessableEntity},
		{"secondary under wrong primary", http.MethodPost, "/api/months/jan/expenses", `{"name":"x","date":1,"amount":"1","primary":"Out","secondary":"Rent"}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/months/jan/expenses", `{"name":`, http.StatusBadRequest},
		{"unknown month", http.MethodPost, "/api/months/smarch/expenses", `{"name":"x","date":1,"amount":"1","primary":"Out"}`, http.StatusNotFound},
		{"edit out of range", http.MethodPut, "/api/months/jan/expenses/3", `{"name":"x","date":1,"amount":"1","primary":"Out"}`, http.StatusNotFound},
		{"non numeric index", http.MethodDelete, "/api/months/jan/expenses/first", ``, http.StatusBadRequest},
		{"unknown month read", http.MethodGet, "/api/months/smarch", ``, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, "application/json", []byte(tt.body))
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected JSON error body, got %s", rr.Body.String())
			}
		})
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	srv, st := newTestServer(t, true, Options{})

	rr := do(t, srv, http.MethodPut, "/api/months/feb/summary", "application/x-www-form-urlencoded",
		[]byte("text=Quiet+month%0Amostly+groceries"))
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got, _ := st.Summary(core.Feb); got != "Quiet month\nmostly groceries" {
		t.Fatalf("stored summary = %q", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/months/feb/summary", "", nil)
	if !strings.Contains(rr.Body.String(), `"Quiet month\nmostly groceries"`) {
		t.Fatalf("get summary body=%s", rr.Body.String())
	}

	// Clearing is a save of the empty text.
	do(t, srv, http.MethodPut, "/api/months/feb/summary", "application/json", []byte(`{"text":""}`))
	if got, _ := st.Summary(core.Feb); got != "" {
		t.Fatalf("summary should be cleared, got %q", got)
	}
}

func TestCategoriesAndMonths(t *testing.T) {
	srv, st := newTestServer(t, true, Options{})
	st.Dispatch(store.AddExpense{Month: core.Mar, Expense: core.Expense{Name: "Train", Date: 3, Amount: 10, Primary: "Transport"}})

	rr := do(t, srv, http.MethodGet, "/api/categories", "", nil)
	var cats []categoryView
	if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(core.Categories()) || cats[0].Name != "Housing" || len(cats[0].Subcategories) == 0 {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	rr = do(t, srv, http.MethodGet, "/api/months", "", nil)
	var months []monthSummaryView
	if err := json.Unmarshal(rr.Body.Bytes(), &months); err != nil {
		t.Fatal(err)
	}
	if len(months) != 12 || months[2].Month != core.Mar || months[2].Entries != 1 || months[2].Formatted != "€ 10.00" {
		t.Fatalf("unexpected months: %+v", months)
	}
}

func TestDashboardFiltersAndCache(t *testing.T) {
	srv, st := newTestServer(t, true, Options{})
	st.Dispatch(store.AddExpense{Month: core.Jan, Expense: core.Expense{Name: "Rent", Date: 1, Amount: 1200, Primary: "Housing", Secondary: "Rent"}})
	st.Dispatch(store.AddExpense{Month: core.Feb, Expense: core.Expense{Name: "Bus", Date: 2, Amount: 30, Primary: "Transport"}})

	rr := do(t, srv, http.MethodGet, "/api/dashboard?month=feb&category=Transport", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var d aggregate.Dashboard
	if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.YearTotal != 1230 || d.FilteredTotal != 30 || d.TopMonth != "January" || d.Entries != 2 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}

	do(t, srv, http.MethodGet, "/api/dashboard?month=feb&category=Transport", "", nil)
	if srv.dashHits != 1 || srv.dashMisses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", srv.dashHits, srv.dashMisses)
	}

	// A new revision misses the cache.
	st.Dispatch(store.DeleteExpense{Month: core.Feb, Index: 0})
	rr = do(t, srv, http.MethodGet, "/api/dashboard?month=all&category=all", "", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.YearTotal != 1200 || d.FilteredTotal != 1200 {
		t.Fatalf("dashboard not recomputed: %+v", d)
	}

	if rr := do(t, srv, http.MethodGet, "/api/dashboard?month=smarch", "", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid month filter status=%d", rr.Code)
	}
}

func sampleWorkbook(t *testing.T) []byte {
	t.Helper()
	data, err := workbook.Export(core.Expenses{
		core.Jan: {{Name: "Rent", Date: 1, Amount: 1200, Primary: "Housing", Secondary: "Rent"}},
		core.Apr: {{Name: "Gift", Date: 9, Amount: 45, Primary: "Gifts", Secondary: "Gifts"}},
	}, core.Summaries{core.Jan: "Moved in"}, nil)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	return data
}

func TestImportAndExport(t *testing.T) {
	srv, st := newTestServer(t, true, Options{})

	rr := do(t, srv, http.MethodPost, "/api/import", workbook.ContentType, sampleWorkbook(t))
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	var view importView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Entries != 2 || view.Months != 2 || view.Summaries != 1 {
		t.Fatalf("unexpected import view: %+v", view)
	}
	if !st.State().HasWorkbook() {
		t.Fatalf("import should keep the workbook snapshot")
	}

	rr = do(t, srv, http.MethodGet, "/api/export", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != workbook.ContentType {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "2026 - Expenses - 2026-03-15.xlsx") {
		t.Fatalf("content disposition = %q", cd)
	}
	res, err := workbook.Import(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("exported workbook unreadable: %v", err)
	}
	if res.Expenses.Count() != 2 || res.Summaries[core.Jan] != "Moved in" {
		t.Fatalf("export lost data: %+v", res)
	}
}

func TestImportMultipart(t *testing.T) {
	srv, st := newTestServer(t, true, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "2026 - Expenses.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(sampleWorkbook(t))
	mw.Close()

	rr := do(t, srv, http.MethodPost, "/api/import", mw.FormDataContentType(), body.Bytes())
	if rr.Code != http.StatusOK {
		t.Fatalf("multipart import status=%d body=%s", rr.Code, rr.Body.String())
	}
	if st.State().Expenses.Count() != 2 {
		t.Fatalf("state not replaced by import")
	}

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	mw.WriteField("other", "x")
	mw.Close()
	if rr := do(t, srv, http.MethodPost, "/api/import", mw.FormDataContentType(), empty.Bytes()); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing file field status=%d", rr.Code)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	srv, st := newTestServer(t, true, Options{MaxUploadBytes: 1 << 20})

	if rr := do(t, srv, http.MethodPost, "/api/import", "application/octet-stream", []byte("not a workbook")); rr.Code != http.StatusBadRequest {
		t.Fatalf("garbage import status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/import", "application/octet-stream", bytes.Repeat([]byte("x"), 2<<20)); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized import status=%d", rr.Code)
	}
	if st.Revision() != 1 {
		t.Fatalf("failed imports must not change state, revision=%d", st.Revision())
	}
}

func TestWorkbookGuardRejectsOverlap(t *testing.T) {
	guard := workbook.NewGuard()
	srv, _ := newTestServer(t, true, Options{Guard: guard})

	err := guard.Do(func() error {
		if rr := do(t, srv, http.MethodGet, "/api/export", "", nil); rr.Code != http.StatusConflict {
			t.Errorf("export during import status=%d", rr.Code)
		}
		if rr := do(t, srv, http.MethodPost, "/api/import", workbook.ContentType, sampleWorkbook(t)); rr.Code != http.StatusConflict {
			t.Errorf("import during import status=%d", rr.Code)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRateLimitAndHeaders(t *testing.T) {
	srv, _ := newTestServer(t, true, Options{RateLimit: 1})

	body := []byte(`{"text":"x"}`)
	rr := do(t, srv, http.MethodPut, "/api/months/jan/summary", "application/json", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("first mutation status=%d", rr.Code)
	}
	for _, h := range []string{"X-Content-Type-Options", "Content-Security-Policy", "X-Request-ID"} {
		if rr.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}

	rr = do(t, srv, http.MethodPut, "/api/months/jan/summary", "application/json", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second mutation status=%d", rr.Code)
	}

	// Reads are never limited.
	if rr := do(t, srv, http.MethodGet, "/api/months/jan", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("read after limit status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/metrics", "", nil)
	for _, want := range []string{"http_requests_total 4", "rate_limit_hits_total 1", "store_revision 2"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("metrics missing %q:\n%s", want, rr.Body.String())
		}
	}
}
