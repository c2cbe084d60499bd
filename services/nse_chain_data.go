package services

import (
	"chainboard/interfaces"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// FetchError indicates the provider answered with a non-200 status
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("option chain fetch failed with status %d", e.StatusCode)
}

// ParseError indicates a 200 response whose body could not be decoded
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("option chain parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NSEChainDataService fetches option-chain data from NSE's public endpoint
type NSEChainDataService struct {
	baseURL string
	logger  *logrus.Logger
	client  *http.Client
}

// NewNSEChainDataService creates a new NSE option-chain data service.
// The timeout is explicit because the endpoint is known to stall under
// load; callers control polling cadence, so there is no retry here.
func NewNSEChainDataService(baseURL string, timeout time.Duration) *NSEChainDataService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &NSEChainDataService{
		baseURL: baseURL,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
	}
}

// nseChainResponse mirrors NSE's option-chain-indices payload
type nseChainResponse struct {
	Records struct {
		UnderlyingValue float64                   `json:"underlyingValue"`
		ExpiryDates     []string                  `json:"expiryDates"`
		Timestamp       string                    `json:"timestamp"`
		Data            []interfaces.StrikeRecord `json:"data"`
	} `json:"records"`
}

// FetchOptionChain issues one GET for the symbol's option chain and returns
// the parsed snapshot. One network call per invocation, no retries, no
// caching.
func (s *NSEChainDataService) FetchOptionChain(ctx context.Context, symbol string) (*interfaces.OptionChainSnapshot, error) {
	url := fmt.Sprintf("%s/option-chain-indices?symbol=%s", s.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	// NSE rejects requests that do not look like a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"status": resp.StatusCode,
		}).Error("Option chain fetch rejected")
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var chainResp nseChainResponse
	if err := json.NewDecoder(body).Decode(&chainResp); err != nil {
		return nil, &ParseError{Err: err}
	}

	snapshot := &interfaces.OptionChainSnapshot{
		Symbol:          symbol,
		UnderlyingValue: chainResp.Records.UnderlyingValue,
		Records:         chainResp.Records.Data,
		ExpiryDates:     chainResp.Records.ExpiryDates,
		Timestamp:       chainResp.Records.Timestamp,
		FetchedAt:       time.Now(),
	}

	s.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"records":    len(snapshot.Records),
		"underlying": snapshot.UnderlyingValue,
		"duration":   time.Since(start),
	}).Debug("Fetched option chain")

	return snapshot, nil
}

// decodeBody unwraps the content encoding we advertised. Setting
// Accept-Encoding by hand disables the transport's automatic gzip
// handling, so it has to happen here.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
