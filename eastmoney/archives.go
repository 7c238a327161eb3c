package eastmoney

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	jijin "github.com/xiechanglei/xie-jijin"
	"golang.org/x/net/html"
)

// Fund archives: the stock positions a fund holds, plus a live quote for
// each of them. The archives endpoint answers a javascript assignment
//
//	var apidata={ content:"<div ...>...</div>",arryear:[2025],curyear:2025};
//
// whose content attribute embeds an HTML fragment. The stock identifiers
// live in the second element of class "hide", as a comma separated list of
// push2 secids ("1.600519,0.000858,..."). The assignment is located with an
// expression and the string literal unquoted, never evaluated.

const (
	archivesURL = "http://fundf10.eastmoney.com/FundArchivesDatas.aspx?type=jjcc&code=%s&topline=%d"
	ulistURL    = "https://push2.eastmoney.com/api/qt/ulist.np/get?fltt=2&invt=2&" +
		"fields=f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13,f14,f15,f16,f17,f18&" +
		"ut=267f9ad526dbe6b0262ab19316f5a25b&secids=%s"

	// push2 accepts at most this many secids per ulist call.
	ulistBatch = 120
)

var reArchivesContent = regexp.MustCompile(`content:"((?:\\.|[^"\\])*)"`)

// StockQuote is the live quote of one stock held by a fund.
type StockQuote struct {
	Code          string  `json:"code"`          // f12
	Name          string  `json:"name"`          // f14
	Price         float64 `json:"price"`         // f2
	ChangePercent float64 `json:"changePercent"` // f3
	Change        float64 `json:"change"`        // f4
	Volume        float64 `json:"volume"`        // f5
	Turnover      float64 `json:"turnover"`      // f6
	High          float64 `json:"high"`          // f15
	Low           float64 `json:"low"`           // f16
	Open          float64 `json:"open"`          // f17
	PrevClose     float64 `json:"prevClose"`     // f18
}

// FetchFundStocks returns live quotes for the top stock positions of a
// fund. limit bounds how many positions the archives report.
func FetchFundStocks(ctx context.Context, client *http.Client, code string, limit int) ([]StockQuote, error) {
	content, err := jijin.Twget(ctx, client, fmt.Sprintf(archivesURL, code, limit))
	if err != nil {
		return nil, err
	}
	secids, err := parseArchivesSecids(content)
	if err != nil {
		return nil, err
	}

	var quotes []StockQuote
	for start := 0; start < len(secids); start += ulistBatch {
		end := min(start+ulistBatch, len(secids))
		batch, err := fetchQuotes(ctx, client, secids[start:end])
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, batch...)
	}
	return quotes, nil
}

// parseArchivesSecids extracts the push2 secids from the archives document.
// Pure function.
func parseArchivesSecids(content string) ([]string, error) {
	m := reArchivesContent.FindStringSubmatch(content)
	if m == nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "no content in archives document"}
	}
	fragment, err := unquoteJS(m[1])
	if err != nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "bad archives string literal: " + err.Error()}
	}

	list := hiddenText(fragment, 1)
	if list == "" {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "fund discloses no stock positions"}
	}
	secids := strings.Split(list, ",")
	for i, id := range secids {
		secids[i] = strings.TrimSpace(id)
	}
	return secids, nil
}

// unquoteJS decodes the escapes of a javascript double-quoted string body.
func unquoteJS(s string) (string, error) {
	// \/ is legal in javascript strings but not in Go ones.
	s = strings.ReplaceAll(s, `\/`, `/`)
	return strconv.Unquote(`"` + s + `"`)
}

// hiddenText returns the text of the n-th element of class "hide" in an
// HTML fragment.
func hiddenText(fragment string, n int) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	seen := 0
	for node := range root.Descendants() {
		if node.Type != html.ElementNode || !hasClass(node, "hide") {
			continue
		}
		if seen == n {
			return strings.TrimSpace(nodeText(node))
		}
		seen++
	}
	return ""
}

func hasClass(node *html.Node, class string) bool {
	for _, attr := range node.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func nodeText(node *html.Node) string {
	var b strings.Builder
	for child := range node.Descendants() {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

// fetchQuotes asks push2 for a live quote of every secid in the batch.
func fetchQuotes(ctx context.Context, client *http.Client, secids []string) ([]StockQuote, error) {
	var jobj any
	if err := jijin.Jwget(ctx, client, fmt.Sprintf(ulistURL, strings.Join(secids, ",")), &jobj); err != nil {
		return nil, err
	}

	jdiff, err := jsonpath.Get("$.data.diff", jobj)
	if err != nil {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "no data.diff in ulist payload"}
	}
	jlist, ok := jdiff.([]any)
	if !ok {
		return nil, &jijin.ParseError{Source: "eastmoney", Reason: "data.diff is not a list"}
	}

	quotes := make([]StockQuote, 0, len(jlist))
	for _, jrow := range jlist {
		row, ok := jrow.(map[string]any)
		if !ok {
			continue
		}
		quotes = append(quotes, StockQuote{
			Code:          jstring(row["f12"]),
			Name:          jstring(row["f14"]),
			Price:         jfloat(row["f2"]),
			ChangePercent: jfloat(row["f3"]),
			Change:        jfloat(row["f4"]),
			Volume:        jfloat(row["f5"]),
			Turnover:      jfloat(row["f6"]),
			High:          jfloat(row["f15"]),
			Low:           jfloat(row["f16"]),
			Open:          jfloat(row["f17"]),
			PrevClose:     jfloat(row["f18"]),
		})
	}
	return quotes, nil
}
