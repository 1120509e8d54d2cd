package books

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultSize = 10
	MaxSize     = 50

	maxBodySize = 1 << 20
)

// Book is the subset of a search hit used to fill a study's book fields.
type Book struct {
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Publisher string `json:"publisher"`
	Thumbnail string `json:"thumbnail"`
	ISBN      string `json:"isbn"`
}

// Client searches the Kakao book API. Any failure yields an empty result.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(baseURL, apiKey string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

func (c *Client) Search(ctx context.Context, query string, size int) []Book {
	query = strings.TrimSpace(query)
	if query == "" || c.apiKey == "" {
		return []Book{}
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	body, err := c.fetch(ctx, query, size)
	if err != nil {
		c.log.WithError(err).WithField("query", query).Warn("book search failed")
		return []Book{}
	}

	return parseBooks(body)
}

func (c *Client) fetch(ctx context.Context, query string, size int) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("book search returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("book search returned malformed json")
	}
	return body, nil
}

func parseBooks(body []byte) []Book {
	docs := gjson.GetBytes(body, "documents")
	books := make([]Book, 0, len(docs.Array()))

	docs.ForEach(func(_, doc gjson.Result) bool {
		title := strings.TrimSpace(doc.Get("title").String())
		if title == "" {
			return true
		}

		authors := make([]string, 0)
		for _, a := range doc.Get("authors").Array() {
			authors = append(authors, a.String())
		}

		books = append(books, Book{
			Title:     title,
			Authors:   strings.Join(authors, ", "),
			Publisher: doc.Get("publisher").String(),
			Thumbnail: doc.Get("thumbnail").String(),
			ISBN:      primaryISBN(doc.Get("isbn").String()),
		})
		return true
	})

	return books
}

// primaryISBN picks the 13 digit form from Kakao's "isbn10 isbn13" field.
func primaryISBN(raw string) string {
	fields := strings.Fields(raw)
	for _, f := range fields {
		if len(f) == 13 {
			return f
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}
