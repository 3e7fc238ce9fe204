package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/HieuPC11/Tiki-Phone/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testService(baseURL string) *Service {
	cfg := &config.CollectorConfig{
		APIBaseURL:   baseURL,
		PageSize:     40,
		MaxPages:     10,
		RequestDelay: 0,
		HTTPTimeout:  2 * time.Second,
	}
	return NewService(cfg, testLogger())
}

func TestCollectCategory_PagesUntilExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data":[
				{"id":1,"name":"Phone A","price":1000,"quantity_sold":{"value":5}},
				{"id":2,"name":"Phone B","price":2000,"quantity_sold":{"value":2}}],
				"paging":{"current_page":1,"last_page":2}}`)
		case "2":
			fmt.Fprint(w, `{"data":[
				{"id":3,"name":"Phone C","price":3000,"quantity_sold":{"value":1}}],
				"paging":{"current_page":2,"last_page":2}}`)
		default:
			t.Errorf("unexpected page request: %s", r.URL.RawQuery)
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer ts.Close()

	s := testService(ts.URL)
	records, err := s.CollectCategory(context.Background(), "Phones", config.Subcategory{ID: 42, Name: "Smartphone"})
	if err != nil {
		t.Fatalf("CollectCategory: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != 1 || records[2].ID != 3 {
		t.Errorf("unexpected record order: %+v", records)
	}
	if records[0].CategoryName != "Phones" || records[0].Subcategory != "Smartphone" {
		t.Errorf("category fields not stamped: %+v", records[0])
	}
	if records[0].QuantitySold != 5 {
		t.Errorf("QuantitySold = %d, expected 5", records[0].QuantitySold)
	}
}

func TestCollectCategory_SkipsFailedPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
		case "2":
			fmt.Fprint(w, `{"data":[
				{"id":7,"name":"Survivor","price":500,"quantity_sold":{"value":9}}],
				"paging":{"current_page":2,"last_page":2}}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer ts.Close()

	s := testService(ts.URL)
	records, err := s.CollectCategory(context.Background(), "Phones", config.Subcategory{ID: 42, Name: "Smartphone"})
	if err != nil {
		t.Fatalf("CollectCategory: %v", err)
	}

	if len(records) != 1 || records[0].ID != 7 {
		t.Fatalf("expected only page-2 record, got %+v", records)
	}
	if s.Stats().PagesSkipped != 1 {
		t.Errorf("PagesSkipped = %d, expected 1", s.Stats().PagesSkipped)
	}
}

func TestCollectCategory_SkipsMalformedEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			// 第二条缺 name，第三条缺 id，都应被丢弃
			fmt.Fprint(w, `{"data":[
				{"id":1,"name":"OK","price":1000,"quantity_sold":{"value":1}},
				{"id":2,"name":"","price":1000,"quantity_sold":{"value":1}},
				{"id":0,"name":"No ID","price":1000,"quantity_sold":{"value":1}}],
				"paging":{"current_page":1,"last_page":1}}`)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	s := testService(ts.URL)
	records, err := s.CollectCategory(context.Background(), "Phones", config.Subcategory{ID: 42, Name: "Smartphone"})
	if err != nil {
		t.Fatalf("CollectCategory: %v", err)
	}

	if len(records) != 1 || records[0].ID != 1 {
		t.Fatalf("expected only the valid record, got %+v", records)
	}
	if s.Stats().RecordsSkipped != 2 {
		t.Errorf("RecordsSkipped = %d, expected 2", s.Stats().RecordsSkipped)
	}
}

func TestCollectCategory_DetailBackfill(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/products/11" {
			fmt.Fprint(w, `{"id":11,"all_time_quantity_sold":77}`)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data":[
				{"id":11,"name":"No qty in listing","price":1000}],
				"paging":{"current_page":1,"last_page":1}}`)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	s := testService(ts.URL)
	records, err := s.CollectCategory(context.Background(), "Phones", config.Subcategory{ID: 42, Name: "Smartphone"})
	if err != nil {
		t.Fatalf("CollectCategory: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].QuantitySold != 77 {
		t.Errorf("QuantitySold = %d, expected 77 from detail backfill", records[0].QuantitySold)
	}
	if s.Stats().DetailBackfill != 1 {
		t.Errorf("DetailBackfill = %d, expected 1", s.Stats().DetailBackfill)
	}
}

func TestCollectCategory_DetailFailureKeepsRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/products/11" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data":[
				{"id":11,"name":"No qty anywhere","price":1000}],
				"paging":{"current_page":1,"last_page":1}}`)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	s := testService(ts.URL)
	records, err := s.CollectCategory(context.Background(), "Phones", config.Subcategory{ID: 42, Name: "Smartphone"})
	if err != nil {
		t.Fatalf("CollectCategory: %v", err)
	}

	if len(records) != 1 || records[0].QuantitySold != 0 {
		t.Fatalf("record should be kept with zero quantity, got %+v", records)
	}
}

func TestCollectAll_Sequential(t *testing.T) {
	var requests []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("category"))
		fmt.Fprint(w, `{"data":[
			{"id":1,"name":"One per page","price":100,"quantity_sold":{"value":1}}],
			"paging":{"current_page":1,"last_page":1}}`)
	}))
	defer ts.Close()

	cfg := &config.CollectorConfig{
		APIBaseURL:  ts.URL,
		PageSize:    40,
		MaxPages:    5,
		HTTPTimeout: 2 * time.Second,
		Categories: []config.Category{
			{ID: 1, Name: "Phones", Subcategories: []config.Subcategory{
				{ID: 10, Name: "Smartphone"},
				{ID: 11, Name: "Feature Phone"},
			}},
			{ID: 2, Name: "Tablets", Subcategories: []config.Subcategory{
				{ID: 20, Name: "Android Tablet"},
			}},
		},
	}
	s := NewService(cfg, testLogger())

	records, err := s.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records (one per subcategory), got %d", len(records))
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 sequential listing requests, got %d", len(requests))
	}
	if requests[0] != "10" || requests[1] != "11" || requests[2] != "20" {
		t.Errorf("subcategories crawled out of order: %v", requests)
	}
}

func TestCollectAll_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.CollectorConfig{
		APIBaseURL:  "http://127.0.0.1:0",
		PageSize:    40,
		MaxPages:    5,
		HTTPTimeout: time.Second,
		Categories: []config.Category{
			{ID: 1, Name: "Phones", Subcategories: []config.Subcategory{{ID: 10, Name: "Smartphone"}}},
		},
	}
	s := NewService(cfg, testLogger())

	if _, err := s.CollectAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ============================================================================
// 错误分类
// ============================================================================

func TestClassifyFetchError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "unknown"},
		{"context_deadline", context.DeadlineExceeded, "timeout"},
		{"context_canceled", context.Canceled, "timeout"},
		{"http_status", fmt.Errorf("%w: 503", ErrUnexpectedStatus), "http_status"},
		{"timeout_string", errors.New("operation timeout"), "timeout"},
		{"connection_string", errors.New("do request: connection refused"), "network_error"},
		{"decode_string", errors.New("decode response: unexpected EOF"), "parse_error"},
		{"random", errors.New("something else"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyFetchError(tt.err); got != tt.expected {
				t.Errorf("classifyFetchError(%v) = %q, expected %q", tt.err, got, tt.expected)
			}
		})
	}
}
