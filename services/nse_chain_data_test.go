package services

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chainBody = `{
	"records": {
		"underlyingValue": 17080.25,
		"expiryDates": ["05-Sep-2026"],
		"timestamp": "30-Aug-2026 15:30:00",
		"data": [
			{"strikePrice": 17000, "CE": {"openInterest": 100}, "PE": {"openInterest": 50}},
			{"strikePrice": 17050, "CE": {"openInterest": 200}},
			{"strikePrice": 17100, "CE": {"openInterest": 300}, "PE": {"openInterest": 250}}
		]
	}
}`

func TestFetchOptionChain(t *testing.T) {
	var gotPath, gotUA, gotLang, gotConn string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotConn = r.Header.Get("Connection")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chainBody))
	}))
	defer server.Close()

	svc := NewNSEChainDataService(server.URL, 5*time.Second)
	snapshot, err := svc.FetchOptionChain(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("FetchOptionChain failed: %v", err)
	}

	if gotPath != "/option-chain-indices?symbol=NIFTY" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
	if gotLang != "en-US,en;q=0.9" {
		t.Fatalf("unexpected Accept-Language %q", gotLang)
	}
	if gotConn != "keep-alive" {
		t.Fatalf("unexpected Connection header %q", gotConn)
	}

	if snapshot.Symbol != "NIFTY" {
		t.Fatalf("unexpected symbol %q", snapshot.Symbol)
	}
	if snapshot.UnderlyingValue != 17080.25 {
		t.Fatalf("unexpected underlying value %f", snapshot.UnderlyingValue)
	}
	if len(snapshot.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snapshot.Records))
	}
	if snapshot.Records[1].Put != nil {
		t.Fatalf("expected missing PE side to stay nil")
	}
	if snapshot.Records[2].Put.OpenInterest != 250 {
		t.Fatalf("unexpected put OI %d", snapshot.Records[2].Put.OpenInterest)
	}
	if snapshot.FetchedAt.IsZero() {
		t.Fatalf("expected FetchedAt to be set")
	}
}

func TestFetchOptionChainGzipBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(chainBody))
		gz.Close()
	}))
	defer server.Close()

	svc := NewNSEChainDataService(server.URL, 5*time.Second)
	snapshot, err := svc.FetchOptionChain(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("FetchOptionChain failed on gzip body: %v", err)
	}
	if snapshot.UnderlyingValue != 17080.25 {
		t.Fatalf("unexpected underlying value %f", snapshot.UnderlyingValue)
	}
}

func TestFetchOptionChainNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewNSEChainDataService(server.URL, 5*time.Second)
	_, err := svc.FetchOptionChain(context.Background(), "NIFTY")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", fetchErr.StatusCode)
	}
}

func TestFetchOptionChainMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>blocked</html>"))
	}))
	defer server.Close()

	svc := NewNSEChainDataService(server.URL, 5*time.Second)
	_, err := svc.FetchOptionChain(context.Background(), "NIFTY")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestFetchOptionChainTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	svc := NewNSEChainDataService(server.URL, time.Second)
	_, err := svc.FetchOptionChain(context.Background(), "NIFTY")
	if err == nil {
		t.Fatalf("expected transport error")
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		t.Fatalf("transport errors must not carry a status code, got %v", err)
	}
}
