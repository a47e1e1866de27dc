package scraper

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"telegram-price-watch/internal/domain"
)

// Extraction works on selector candidates, most specific first, because
// retail sites restructure their pages without notice. A candidate wins as
// soon as it yields usable text.

var titleSelectors = []struct {
	tag      string
	dataTest string
}{
	{tag: "h1", dataTest: "title"},
	{tag: "span", dataTest: "title"},
	{tag: "div", dataTest: "title"},
	{tag: "h1"},
}

var priceClasses = []string{
	"promo-price",
	"price-block__price",
	"price",
	"product-price",
	"current-price",
}

type pageData struct {
	Name     string
	Price    decimal.Decimal
	Currency string
}

// parsePage extracts product name and price from a product page.
func parsePage(body []byte) (pageData, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return pageData{}, domain.ErrPriceNotFound
	}

	name := extractTitle(doc)
	if name == "" {
		return pageData{}, domain.ErrPriceNotFound
	}

	priceText := extractPriceText(doc)
	if priceText == "" {
		return pageData{}, domain.ErrPriceNotFound
	}
	price, err := normalizePrice(priceText)
	if err != nil {
		return pageData{}, err
	}

	return pageData{
		Name:     name,
		Price:    price,
		Currency: detectCurrency(priceText),
	}, nil
}

func extractTitle(doc *html.Node) string {
	for _, sel := range titleSelectors {
		var found string
		walk(doc, func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.Data != sel.tag {
				return true
			}
			if sel.dataTest != "" && attrVal(n, "data-test") != sel.dataTest {
				return true
			}
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func extractPriceText(doc *html.Node) string {
	for _, class := range priceClasses {
		var found string
		walk(doc, func(n *html.Node) bool {
			if n.Type != html.ElementNode || !hasClass(n, class) {
				return true
			}
			text := strings.TrimSpace(nodeText(n))
			if strings.ContainsFunc(text, unicode.IsDigit) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// normalizePrice turns scraped price text into a decimal value. Sites
// render prices as "38,99", "€ 38.99" or split markup that flattens to
// "3899"; a separator-less value over 1000 is read as cents.
func normalizePrice(text string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, domain.ErrPriceNotFound
	}

	hadSeparator := strings.Contains(cleaned, ".")
	if parts := strings.Split(cleaned, "."); len(parts) > 2 {
		cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, domain.ErrPriceNotFound
	}
	if !hadSeparator && price.GreaterThan(decimal.NewFromInt(1000)) {
		price = price.Div(decimal.NewFromInt(100))
	}
	return price, nil
}

func detectCurrency(text string) string {
	switch {
	case strings.ContainsRune(text, '€'):
		return "EUR"
	case strings.ContainsRune(text, '$'):
		return "USD"
	case strings.ContainsRune(text, '£'):
		return "GBP"
	default:
		return ""
	}
}

// walk visits nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
