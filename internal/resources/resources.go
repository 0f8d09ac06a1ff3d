// Package resources gathers reading material for a topic: a Wikipedia
// summary, search links for videos, books and papers, and recent arXiv
// entries.
package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	DefaultArxivURL     = "https://export.arxiv.org/api/query"
	DefaultMaxArticles  = 5

	msgNotFound  = "Bu konuda Wikipedia sayfası bulunamadı."
	msgAmbiguous = "Çok anlamlı konu, lütfen daha net yazın."
	msgFailed    = "Wikipedia şu anda yanıt vermiyor."
)

var ErrEmptyTopic = errors.New("topic is required")

// Config configures a Client.
type Config struct {
	WikipediaURL string
	ArxivURL     string
	MaxArticles  int
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client looks up learning resources.
type Client struct {
	wikiURL     string
	arxivURL    string
	maxArticles int
	http        *http.Client
	logger      *slog.Logger
}

// NewClient creates a resources Client.
func NewClient(cfg Config) *Client {
	if cfg.WikipediaURL == "" {
		cfg.WikipediaURL = DefaultWikipediaURL
	}
	if cfg.ArxivURL == "" {
		cfg.ArxivURL = DefaultArxivURL
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = DefaultMaxArticles
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		wikiURL:     cfg.WikipediaURL,
		arxivURL:    cfg.ArxivURL,
		maxArticles: cfg.MaxArticles,
		http:        cfg.HTTPClient,
		logger:      cfg.Logger,
	}
}

// Wiki is a Wikipedia summary, or the reason there is none.
type Wiki struct {
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Paper is one arXiv entry.
type Paper struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Authors   []string   `json:"authors"`
	Published *time.Time `json:"published,omitempty"`
}

// Result holds everything found for a topic.
type Result struct {
	Topic     string   `json:"topic"`
	Wikipedia Wiki     `json:"Wikipedia"`
	Videos    []string `json:"Videos"`
	Books     []string `json:"Books"`
	Articles  []string `json:"Articles"`
	Wikibooks []string `json:"Wikibooks"`
	Papers    []Paper  `json:"Papers"`
}

// Lookup gathers resources for topic. Remote sources are queried
// concurrently and each fails open: a dead source leaves its part empty.
func (c *Client) Lookup(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	res := SearchLinks(topic)
	res.Papers = []Paper{}

	var g errgroup.Group
	g.Go(func() error {
		res.Wikipedia = c.wikipedia(ctx, topic)
		return nil
	})
	g.Go(func() error {
		papers, err := c.papers(ctx, topic)
		if err != nil {
			c.logger.Warn("arxiv lookup failed", "topic", topic, "error", err)
			return nil
		}
		res.Papers = papers
		return nil
	})
	g.Wait()

	return res, nil
}

// SearchLinks builds the static search links for topic.
func SearchLinks(topic string) *Result {
	return &Result{
		Topic:     topic,
		Videos:    []string{"https://www.youtube.com/results?search_query=" + url.QueryEscape(topic+" introduction")},
		Books:     []string{"https://www.google.com/search?q=" + url.QueryEscape(topic+" book")},
		Articles:  []string{"https://arxiv.org/search/?query=" + url.QueryEscape(topic) + "&searchtype=all"},
		Wikibooks: []string{"https://en.wikibooks.org/wiki/" + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))},
	}
}

type wikiSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (c *Client) wikipedia(ctx context.Context, topic string) Wiki {
	target := c.wikiURL + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Wiki{Error: msgFailed}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "StudyPlan/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("wikipedia lookup failed", "topic", topic, "error", err)
		return Wiki{Error: msgFailed}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Wiki{Error: msgNotFound}
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("wikipedia lookup failed", "topic", topic, "status", resp.StatusCode)
		return Wiki{Error: msgFailed}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Wiki{Error: msgFailed}
	}
	var s wikiSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return Wiki{Error: msgFailed}
	}
	if s.Type == "disambiguation" {
		return Wiki{Title: s.Title, Error: msgAmbiguous}
	}
	if strings.TrimSpace(s.Extract) == "" {
		return Wiki{Error: msgNotFound}
	}
	return Wiki{
		Title:   s.Title,
		Summary: FirstSentences(s.Extract, 3),
		URL:     s.ContentURLs.Desktop.Page,
	}
}

func (c *Client) papers(ctx context.Context, topic string) ([]Paper, error) {
	q := url.Values{
		"search_query": {"all:" + topic},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(c.maxArticles)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.arxivURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv: status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arxiv: parse feed: %w", err)
	}

	papers := make([]Paper, 0, c.maxArticles)
	for _, it := range feed.Items {
		if len(papers) >= c.maxArticles {
			break
		}
		p := Paper{
			Title:     strings.Join(strings.Fields(it.Title), " "),
			URL:       it.Link,
			Authors:   []string{},
			Published: it.PublishedParsed,
		}
		for _, a := range it.Authors {
			if a != nil && a.Name != "" {
				p.Authors = append(p.Authors, a.Name)
			}
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// FirstSentences returns at most n sentences of text.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' && text[i] != '!' && text[i] != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\n' {
			continue
		}
		count++
		if count == n {
			return text[:i+1]
		}
	}
	return text
}
