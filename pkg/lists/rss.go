package lists

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

var (
	imdbIDPattern = regexp.MustCompile(`tt\d{7,8}`)
	tmdbRefPattern = regexp.MustCompile(`tmdb://(\d+)`)
)

// feedItem is the subset of an RSS item the importer consumes.
type feedItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
	GUID  string `xml:"guid"`
}

type feedDocument struct {
	Channel struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
}

// candidate is one list entry before TMDb resolution.
type candidate struct {
	title     string
	imdbID    string
	tmdbID    string
	itemTypes []string
}

// candidate extracts the IDs embedded in the item's guid and link. The guid
// is checked first since feeds that carry both usually put the canonical id
// there.
func (f feedItem) candidate() candidate {
	cand := candidate{title: f.Title}

	for _, source := range []string{f.GUID, f.Link} {
		if cand.imdbID == "" {
			cand.imdbID = imdbIDPattern.FindString(source)
		}
		if cand.tmdbID == "" {
			if m := tmdbRefPattern.FindStringSubmatch(source); m != nil {
				cand.tmdbID = m[1]
			}
		}
	}

	return cand
}

// fetchFeed downloads and parses an RSS document.
func (i *Importer) fetchFeed(ctx context.Context, rawURL string) ([]feedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := i.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status not ok: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc feedDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return doc.Channel.Items, nil
}
