package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// indexPages maps index names to the Wikipedia constituents article.
// Fallback source only, used when the analysis service ticker-list
// endpoint is down.
var indexPages = map[string]string{
	"sp500":     "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
	"nasdaq100": "https://en.wikipedia.org/wiki/Nasdaq-100",
	"dow30":     "https://en.wikipedia.org/wiki/Dow_Jones_Industrial_Average",
}

// Client scrapes index constituent tables from Wikipedia
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, logger: log}
}

// FetchConstituents scrapes the constituent table for an index and
// returns ticker symbols normalized to Yahoo-style ("BRK.B" -> "BRK-B").
func (c *Client) FetchConstituents(ctx context.Context, index string) ([]string, error) {
	pageURL, ok := indexPages[index]
	if !ok {
		return nil, fmt.Errorf("no wikipedia source for index %q", index)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; market-analysis/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s constituents: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s constituents: unexpected status %d", index, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", index, err)
	}

	tickers := c.extractTickers(doc)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found on %s page", index)
	}

	c.logger.WithFields(map[string]interface{}{
		"index": index,
		"count": len(tickers),
	}).Debug("Scraped index constituents from wikipedia")
	return tickers, nil
}

// extractTickers walks the wikitable cells looking for symbol columns.
// Wikipedia marks constituent tables with id=constituents on the major
// index pages; fall back to the first sortable wikitable otherwise.
func (c *Client) extractTickers(doc *goquery.Document) []string {
	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		table = doc.Find("table.wikitable.sortable").First()
	}
	if table.Length() == 0 {
		return nil
	}

	symbolCol := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		if header == "symbol" || header == "ticker" || header == "ticker symbol" {
			symbolCol = i
			return false
		}
		return true
	})
	if symbolCol < 0 {
		symbolCol = 0
	}

	var tickers []string
	seen := make(map[string]bool)
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() <= symbolCol {
			return
		}
		symbol := strings.TrimSpace(cells.Eq(symbolCol).Text())
		if symbol == "" || len(symbol) > 10 {
			return
		}
		symbol = strings.ToUpper(strings.ReplaceAll(symbol, ".", "-"))
		if !seen[symbol] {
			seen[symbol] = true
			tickers = append(tickers, symbol)
		}
	})
	return tickers
}
