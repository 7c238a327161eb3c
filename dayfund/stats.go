package dayfund

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	jijin "github.com/xiechanglei/xie-jijin"
	"golang.org/x/net/html"
)

// The fund page embeds a statistics table; its row of class "row2" carries
// the periodic returns, cells 2 to 5 being the last week, month, quarter
// and year change percents. A cell that does not parse to a number means
// the site has no answer for that period, which stays an absent value.

// FetchHistory returns the periodic-return statistics of a fund.
func (s *Source) FetchHistory(ctx context.Context, code string) (jijin.HistoryStats, error) {
	page, err := jijin.Twget(ctx, s.client, fmt.Sprintf(s.infoURL, code))
	if err != nil {
		return jijin.HistoryStats{}, err
	}
	return parseHistoryStats(page)
}

// parseHistoryStats extracts the periodic returns from the fund page. Pure
// function.
func parseHistoryStats(page string) (jijin.HistoryStats, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return jijin.HistoryStats{}, &jijin.ParseError{Source: "dayfund", Reason: err.Error()}
	}

	row := findClass(findClass(root, "boxList"), "row2")
	if row == nil {
		return jijin.HistoryStats{}, &jijin.ParseError{Source: "dayfund", Reason: "no statistics row in fund page"}
	}

	cells := childCells(row)
	return jijin.HistoryStats{
		LastWeek:   percentAt(cells, 2),
		LastMonth:  percentAt(cells, 3),
		LastSeason: percentAt(cells, 4),
		LastYear:   percentAt(cells, 5),
	}, nil
}

// parseFundName extracts the fund's display name from the page title, which
// reads like "华夏成长混合(000001)今日基金净值...".
func parseFundName(page string) (string, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", &jijin.ParseError{Source: "dayfund", Reason: err.Error()}
	}
	title := findElement(root, "title")
	if title == nil {
		return "", &jijin.ParseError{Source: "dayfund", Reason: "fund page has no title"}
	}
	name := text(title)
	if i := strings.IndexAny(name, "(（"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &jijin.ParseError{Source: "dayfund", Reason: "fund page title has no name"}
	}
	return name, nil
}

// percentAt parses the i-th cell as a percent value. Out of range or non
// numeric cells yield the explicit absent marker, not zero.
func percentAt(cells []*html.Node, i int) decimal.NullDecimal {
	if i >= len(cells) {
		return decimal.NullDecimal{}
	}
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text(cells[i])), "%"))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// findClass returns the first descendant carrying the CSS class.
func findClass(root *html.Node, class string) *html.Node {
	if root == nil {
		return nil
	}
	for node := range root.Descendants() {
		if node.Type != html.ElementNode {
			continue
		}
		for _, attr := range node.Attr {
			if attr.Key == "class" && containsField(attr.Val, class) {
				return node
			}
		}
	}
	return nil
}

// findElement returns the first descendant element with the given tag name.
func findElement(root *html.Node, tag string) *html.Node {
	for node := range root.Descendants() {
		if node.Type == html.ElementNode && node.Data == tag {
			return node
		}
	}
	return nil
}

// childCells returns the direct td children of a table row.
func childCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	for child := range row.ChildNodes() {
		if child.Type == html.ElementNode && child.Data == "td" {
			cells = append(cells, child)
		}
	}
	return cells
}

// text concatenates all text below a node.
func text(node *html.Node) string {
	var b strings.Builder
	for child := range node.Descendants() {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func containsField(list, want string) bool {
	for _, f := range strings.Fields(list) {
		if f == want {
			return true
		}
	}
	return false
}
