// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/genoscope/internal/httputil"
	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/pkg/types"
)

// eutilsBase is the E-utilities root used when the client has no BaseURL.
// Declared as a var so tests can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// NCBIDatabase returns the Entrez db parameter for a backend.
func NCBIDatabase(id types.DatabaseID) string {
	switch id {
	case types.DBNucleotide:
		return "nuccore"
	case types.DBProtein:
		return "protein"
	case types.DBExpression:
		return "gds"
	case types.DBSequenceRead:
		return "sra"
	default:
		return string(id)
	}
}

// EUtils is the HTTP client shared by all connectors. Every request waits
// on Limiter and goes through httputil.DoWithRetry with Policy.
type EUtils struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Policy  httputil.Policy
	Metrics *metrics.Metrics
	Log     zerolog.Logger

	BaseURL   string
	APIKey    string
	Tool      string
	Email     string
	UserAgent string
}

// NewEUtils builds a client from the search configuration. The limiter is
// passed in because one limiter is shared per process.
func NewEUtils(cfg types.SearchConfig, limiter *rate.Limiter, m *metrics.Metrics, log zerolog.Logger) *EUtils {
	return &EUtils{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Limiter:   limiter,
		Policy:    httputil.PolicyFromConfig(cfg),
		Metrics:   m,
		Log:       log,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Tool:      cfg.Tool,
		Email:     cfg.Email,
		UserAgent: cfg.UserAgent,
	}
}

// get calls one E-utilities endpoint and returns the response body. db is
// used for metrics and log fields only; params must already carry the
// Entrez db parameter.
func (c *EUtils) get(ctx context.Context, db types.DatabaseID, endpoint string, params url.Values) ([]byte, error) {
	base := c.BaseURL
	if base == "" {
		base = eutilsBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+endpoint+".fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	policy := c.Policy
	policy.OnRetry = func(attempt int, err error) {
		c.Metrics.Retry(db)
		c.Log.Debug().
			Str("database", string(db)).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Err(err).
			Msg("retrying transient failure")
	}

	c.Metrics.Request(db, endpoint)
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, c.Limiter, req, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", endpoint, &httputil.StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	return body, nil
}

// Search runs esearch and returns matching UIDs in relevance order.
func (c *EUtils) Search(ctx context.Context, db types.DatabaseID, term string, retmax int) ([]string, error) {
	params := url.Values{
		"db":      {NCBIDatabase(db)},
		"term":    {term},
		"retmax":  {strconv.Itoa(retmax)},
		"retmode": {"json"},
	}
	body, err := c.get(ctx, db, "esearch", params)
	if err != nil {
		return nil, err
	}

	var esr esearchResponse
	if err := json.Unmarshal(body, &esr); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	if esr.Result.Error != "" {
		return nil, fmt.Errorf("esearch: %s", esr.Result.Error)
	}
	return esr.Result.IDList, nil
}

// Summaries runs esummary for ids and returns one raw document summary per
// UID, in the order the backend listed them. UIDs the backend reports as
// unavailable are skipped.
func (c *EUtils) Summaries(ctx context.Context, db types.DatabaseID, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{
		"db":      {NCBIDatabase(db)},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	body, err := c.get(ctx, db, "esummary", params)
	if err != nil {
		return nil, err
	}

	var esr esummaryResponse
	if err := json.Unmarshal(body, &esr); err != nil {
		return nil, fmt.Errorf("parsing esummary response: %w", err)
	}
	if esr.Error != "" {
		return nil, fmt.Errorf("esummary: %s", esr.Error)
	}

	var uids []string
	if raw, ok := esr.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("parsing esummary uids: %w", err)
		}
	}

	docs := make([]json.RawMessage, 0, len(uids))
	for _, uid := range uids {
		raw, ok := esr.Result[uid]
		if !ok {
			continue
		}
		var probe struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &probe) == nil && probe.Error != "" {
			c.Log.Debug().Str("database", string(db)).Str("uid", uid).Str("error", probe.Error).Msg("skipping summary")
			continue
		}
		docs = append(docs, raw)
	}
	return docs, nil
}

// Fetch runs efetch and returns the raw payload (FASTA, GenBank flat file,
// runinfo CSV, ...).
func (c *EUtils) Fetch(ctx context.Context, db types.DatabaseID, ids []string, rettype, retmode string) ([]byte, error) {
	params := url.Values{
		"db":      {NCBIDatabase(db)},
		"id":      {strings.Join(ids, ",")},
		"rettype": {rettype},
		"retmode": {retmode},
	}
	return c.get(ctx, db, "efetch", params)
}

// E-utilities JSON structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Error  string                     `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

// normalizeDate turns the date layouts E-utilities and SRA use
// ("2021/03/04", "2021/03/04 00:00", "2021-03-04 10:11:12") into
// YYYY-MM-DD. Anything shorter than a full date is returned empty.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return ""
	}
	d := strings.ReplaceAll(s[:10], "/", "-")
	if d[4] != '-' || d[7] != '-' {
		return ""
	}
	return d
}
