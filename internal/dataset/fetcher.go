package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"studyplan/internal/fn"
)

// Google Drive endpoints for the public skill builder export.
const (
	DefaultFileID      = "1EU6wifU-cdpeSHjKdl2jvxzLD26Lq-bs"
	DefaultHostURL     = "https://drive.google.com/uc?export=download"
	DefaultDownloadURL = "https://drive.usercontent.google.com/download"

	// DefaultHTMLPrefix is how much of an interstitial page is read when
	// looking for confirmation tokens.
	DefaultHTMLPrefix = 10 * 1024
)

// Opener yields a fresh CSV byte stream for each call.
type Opener interface {
	Open(ctx context.Context) fn.Result[io.ReadCloser]
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	FileID      string
	HostURL     string
	DownloadURL string
	HTMLPrefix  int
	UserAgent   string
}

// Fetcher streams the dataset from a file host, following one interstitial
// "can't scan this file for viruses" confirmation page when the host serves it.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
}

// NewFetcher creates a Fetcher. The client must not set a Timeout because it
// would cut long streams; deadlines come from the request context.
func NewFetcher(client *http.Client, cfg FetcherConfig) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.FileID == "" {
		cfg.FileID = DefaultFileID
	}
	if cfg.HostURL == "" {
		cfg.HostURL = DefaultHostURL
	}
	if cfg.DownloadURL == "" {
		cfg.DownloadURL = DefaultDownloadURL
	}
	if cfg.HTMLPrefix <= 0 {
		cfg.HTMLPrefix = DefaultHTMLPrefix
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "StudyPlan-DatasetFetcher/1.0"
	}
	return &Fetcher{client: client, cfg: cfg}
}

// Open returns the CSV body. The caller owns and must close it.
func (f *Fetcher) Open(ctx context.Context) fn.Result[io.ReadCloser] {
	resp, err := f.get(ctx, f.cfg.HostURL, url.Values{"id": {f.cfg.FileID}})
	if err != nil {
		return fn.Err[io.ReadCloser](err)
	}

	if !isHTML(resp) {
		return fn.Ok(resp.Body)
	}

	prefix, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.HTMLPrefix)))
	resp.Body.Close()
	if err != nil {
		return fn.Err[io.ReadCloser](fmt.Errorf("%w: reading confirmation page: %v", ErrTransport, err))
	}

	tokens := ExtractConfirmTokens(prefix)
	if tokens.Confirm == "" {
		return fn.Err[io.ReadCloser](ErrNoConfirmToken)
	}

	params := url.Values{
		"id":      {f.cfg.FileID},
		"confirm": {tokens.Confirm},
	}
	if tokens.UUID != "" {
		params.Set("uuid", tokens.UUID)
	}

	resp, err = f.get(ctx, f.cfg.DownloadURL, params)
	if err != nil {
		return fn.Err[io.ReadCloser](err)
	}
	if isHTML(resp) {
		resp.Body.Close()
		return fn.Err[io.ReadCloser](fmt.Errorf("%w: download endpoint served html", ErrNotCSV))
	}
	return fn.Ok(resp.Body)
}

// get issues a GET with params merged into rawURL's existing query.
func (f *Fetcher) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", ErrTransport, rawURL, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	return resp, nil
}

func isHTML(resp *http.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html")
}

// ConfirmTokens are the values a confirmation page asks to be sent back.
type ConfirmTokens struct {
	Confirm string
	UUID    string
}

// ExtractConfirmTokens finds the confirm and uuid values in a (possibly
// truncated) confirmation page. Form fields are preferred; older pages only
// carry the token in a download link.
func ExtractConfirmTokens(page []byte) ConfirmTokens {
	var tokens ConfirmTokens

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return tokens
	}

	tokens.Confirm, _ = doc.Find(`[name="confirm"]`).First().Attr("value")
	tokens.UUID, _ = doc.Find(`[name="uuid"]`).First().Attr("value")

	if tokens.Confirm == "" {
		doc.Find(`a[href*="confirm="]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			u, err := url.Parse(href)
			if err != nil {
				return true
			}
			tokens.Confirm = u.Query().Get("confirm")
			if tokens.UUID == "" {
				tokens.UUID = u.Query().Get("uuid")
			}
			return tokens.Confirm == ""
		})
	}
	return tokens
}
