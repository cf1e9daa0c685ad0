package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"expensebook/internal/aggregate"
	"expensebook/internal/core"
	"expensebook/internal/log"
	"expensebook/internal/store"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).String(),
	})
}

// handleReady reports 503 until the store has been hydrated.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st, rev := s.store.Snapshot()
	if !st.Loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ready",
		"revision":     rev,
		"entries":      st.Expenses.Count(),
		"has_workbook": st.HasWorkbook(),
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	st, rev := s.store.Snapshot()

	metric := func(name, help, kind string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("store_revision", "Commits applied since start", "counter", rev)
	metric("expenses_entries", "Expenses currently held", "gauge", st.Expenses.Count())
	metric("dashboard_cache_hits_total", "Dashboard cache hits", "counter", atomic.LoadInt64(&s.dashHits))
	metric("dashboard_cache_misses_total", "Dashboard cache misses", "counter", atomic.LoadInt64(&s.dashMisses))
	metric("dashboard_cache_entries", "Dashboard cache entries", "gauge", s.dashboards.Size())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", int64(s.now().Sub(s.started).Seconds()))
}

type categoryView struct {
	Name          string   `json:"name"`
	Emoji         string   `json:"emoji"`
	Subcategories []string `json:"subcategories"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	names := core.Categories()
	out := make([]categoryView, 0, len(names))
	for _, name := range names {
		out = append(out, categoryView{
			Name:          name,
			Emoji:         core.CategoryEmoji(name),
			Subcategories: core.Subcategories(name),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type monthSummaryView struct {
	Month      core.Month `json:"month"`
	Name       string     `json:"name"`
	Short      string     `json:"short"`
	Emoji      string     `json:"emoji"`
	Total      float64    `json:"total"`
	Formatted  string     `json:"formatted"`
	Entries    int        `json:"entries"`
	HasSummary bool       `json:"has_summary"`
}

// handleMonths lists the twelve months in calendar order with their totals.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	st, _ := s.store.Snapshot()
	totals := aggregate.MonthlyTotals(st.Expenses)
	out := make([]monthSummaryView, 0, len(core.Months))
	for _, m := range core.Months {
		out = append(out, monthSummaryView{
			Month:      m,
			Name:       m.Name(),
			Short:      m.Short(),
			Emoji:      m.Emoji(),
			Total:      totals[m],
			Formatted:  aggregate.FormatCurrency(totals[m]),
			Entries:    len(st.Expenses.For(m)),
			HasSummary: strings.TrimSpace(st.Summaries.For(m)) != "",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	s.writeMonth(w, r, http.StatusOK, m)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	e, err := parseExpense(NewRequestBodyParser(w, r), s.now())
	if err == nil {
		err = e.Validate()
	}
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	rev, err := s.store.Dispatch(store.AddExpense{Month: m, Expense: e})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	s.events.LogExpenseChanged(r.Context(), log.OpCreate, string(m), e.Name, e.Amount, e.Primary, e.Secondary, rev)
	s.writeMonth(w, r, http.StatusCreated, m)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	e, err := parseExpense(NewRequestBodyParser(w, r), s.now())
	if err == nil {
		err = e.Validate()
	}
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	rev, err := s.store.Dispatch(store.EditExpense{Month: m, Index: index, Expense: e})
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.events.LogExpenseChanged(r.Context(), log.OpUpdate, string(m), e.Name, e.Amount, e.Primary, e.Secondary, rev)
	s.writeMonth(w, r, http.StatusOK, m)
}

// handleDeleteExpense removes one expense. An index past the end of the
// month removes nothing and still answers with the month.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}

	e, removed, rev, err := s.store.Remove(m, index)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if removed {
		s.events.LogExpenseChanged(r.Context(), log.OpDelete, string(m), e.Name, e.Amount, e.Primary, e.Secondary, rev)
	}
	s.writeMonth(w, r, http.StatusOK, m)
}

func (s *Server) writeMonth(w http.ResponseWriter, r *http.Request, status int, m core.Month) {
	ov, err := s.store.Month(m)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	if ov.Expenses == nil {
		ov.Expenses = []core.Expense{}
	}
	writeJSON(w, status, ov)
}

type summaryView struct {
	Month core.Month `json:"month"`
	Text  string     `json:"text"`
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	text, err := s.store.Summary(m)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryView{Month: m, Text: text})
}

// handleSaveSummary stores the month's text; an empty text is kept as such.
func (s *Server) handleSaveSummary(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	if !p.Has("text") {
		writeError(w, r, log.OpUpdate, fmt.Errorf("%w: missing text", errBadRequest))
		return
	}
	text := p.GetText("text")

	rev, err := s.store.Dispatch(store.SaveSummary{Month: m, Text: text})
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Summary saved",
		log.FieldMonth, string(m),
		log.FieldRevision, rev,
		log.FieldBytes, len(text))
	writeJSON(w, http.StatusOK, summaryView{Month: m, Text: text})
}

// handleDashboard answers the dashboard for ?month= and ?category=. Both
// default to all; the result is cached per store revision.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var f aggregate.Filter
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" && !strings.EqualFold(v, "all") {
		m, err := core.ParseMonth(v)
		if err != nil {
			writeError(w, r, log.OpRead, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		f.Month = m
	}
	if v := sanitizeInput(r.URL.Query().Get("category")); v != "" && !strings.EqualFold(v, "all") {
		f.Category = v
	}

	writeJSON(w, http.StatusOK, s.dashboard(f))
}

func (s *Server) dashboard(f aggregate.Filter) aggregate.Dashboard {
	st, rev := s.store.Snapshot()
	key := fmt.Sprintf("%d|%s|%s", rev, f.Month, f.Category)
	missed := false
	d := s.dashboards.GetOrCompute(key, func() aggregate.Dashboard {
		missed = true
		return aggregate.BuildDashboard(st.Expenses, f)
	})
	if missed {
		atomic.AddInt64(&s.dashMisses, 1)
	} else {
		atomic.AddInt64(&s.dashHits, 1)
	}
	return d
}
