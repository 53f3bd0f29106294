package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const baseURL = "https://bolls.life"

// Client talks to the bolls.life catalogue. It is only used while importing
// translations; reading happens from the local database.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// WithBaseURL points the client at another host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type Translation struct {
	ShortName string `json:"short_name"`
	FullName  string `json:"full_name"`
	Updated   int64  `json:"updated"`
	Dir       string `json:"dir,omitempty"`
}

type LanguageGroup struct {
	Language     string        `json:"language"`
	Translations []Translation `json:"translations"`
}

type Book struct {
	BookID     int    `json:"bookid"`
	ChronOrder int    `json:"chronorder"`
	Name       string `json:"name"`
	Chapters   int    `json:"chapters"`
}

// Verse is the record shape of a translation dump.
type Verse struct {
	PK          int    `json:"pk"`
	Verse       int    `json:"verse"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
	Book        int    `json:"book,omitempty"`
	Chapter     int    `json:"chapter,omitempty"`
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetTranslations lists the catalogue's translations for one language.
func (c *Client) GetTranslations(ctx context.Context, language string) ([]Translation, error) {
	url := fmt.Sprintf("%s/static/bolls/app/views/languages.json", c.baseURL)

	var languageGroups []LanguageGroup
	if err := c.get(ctx, url, &languageGroups); err != nil {
		return nil, err
	}

	for _, group := range languageGroups {
		if strings.EqualFold(group.Language, language) {
			return group.Translations, nil
		}
	}
	return nil, nil
}

// GetBooks lists a translation's books with their catalogue ids.
func (c *Client) GetBooks(ctx context.Context, translation string) ([]Book, error) {
	url := fmt.Sprintf("%s/get-books/%s/", c.baseURL, translation)

	var books []Book
	if err := c.get(ctx, url, &books); err != nil {
		return nil, err
	}
	return books, nil
}
