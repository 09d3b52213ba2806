package sources

import (
	"encoding/xml"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

// rssDocument covers RSS 2.0.
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
			Creator     string `xml:"creator"`
		} `xml:"item"`
	} `xml:"channel"`
}

// atomDocument covers Atom 1.0, including arXiv's API responses.
type atomDocument struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		Links   []struct {
			Href string `xml:"href,attr"`
			Rel  string `xml:"rel,attr"`
		} `xml:"link"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// parseFeed decodes either RSS 2.0 or Atom into items, capped to limit.
func parseFeed(data []byte, limit int) ([]feed.Item, error) {
	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil && rss.XMLName.Local == "rss" {
		items := make([]feed.Item, 0, limit)
		for _, entry := range rss.Channel.Items {
			if len(items) >= limit {
				break
			}
			items = append(items, feed.Item{
				Title:       cleanText(entry.Title),
				URL:         entry.Link,
				Description: truncate(cleanText(entry.Description), 400),
				Author:      entry.Creator,
				PublishedAt: parseFeedTime(entry.PubDate),
			})
		}
		return items, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(data, &atom); err != nil {
		return nil, err
	}
	items := make([]feed.Item, 0, limit)
	for _, entry := range atom.Entries {
		if len(items) >= limit {
			break
		}
		it := feed.Item{
			Title:       cleanText(entry.Title),
			Description: truncate(cleanText(entry.Summary), 400),
			PublishedAt: parseFeedTime(firstNonEmpty(entry.Published, entry.Updated)),
		}
		for _, l := range entry.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				it.URL = l.Href
				break
			}
		}
		if it.URL == "" && len(entry.Links) > 0 {
			it.URL = entry.Links[0].Href
		}
		if len(entry.Authors) > 0 {
			it.Author = entry.Authors[0].Name
		}
		items = append(items, it)
	}
	return items, nil
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
}

func parseFeedTime(s string) time.Time {
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
