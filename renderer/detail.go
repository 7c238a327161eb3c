package renderer

import (
	"fmt"
	"strings"

	"github.com/xiechanglei/xie-jijin/eastmoney"
)

// DetailMarkdown renders the top stock positions of a fund with their live
// quotes.
func DetailMarkdown(code string, quotes []eastmoney.StockQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fund %s positions\n\n", code)
	fmt.Fprintln(&b, "| Code | Name | Price | Change | Open | High | Low | Prev |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|---:|")

	for _, q := range quotes {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %+.2f%% | %.2f | %.2f | %.2f | %.2f |\n",
			q.Code, q.Name, q.Price, q.ChangePercent, q.Open, q.High, q.Low, q.PrevClose)
	}
	return b.String()
}
