package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"civic-crawler/models"
	"civic-crawler/utils"
)

// nonContentSelectors are stripped before measuring page text.
const nonContentSelectors = "script, style, noscript, template"

var (
	// dateRe matches DD/MM/YYYY and DD-MM-YYYY, with optional two-digit years.
	dateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-](?:\d{4}|\d{2})\b`)
	// amountRe matches a pound sign followed by digits, commas and optional pence.
	amountRe = regexp.MustCompile(`£\s?\d[\d,]*(?:\.\d{1,2})?`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Extraction is everything pulled out of one parsed page.
type Extraction struct {
	Title       string
	Description string
	Text        string
	Links       []string
	FileLinks   []string
	Counts      models.Metadata
	Data        models.ExtractedData
}

// Extract pulls title, description, text, links and structured data from doc.
// Relative links are resolved against pageURL. doc is not modified.
func Extract(doc *goquery.Document, pageURL string) Extraction {
	links, fileLinks, contacts := collectLinks(doc, pageURL)

	text := pageText(doc)
	ex := Extraction{
		Title:       pageTitle(doc),
		Description: metaDescription(doc),
		Text:        text,
		Links:       links,
		FileLinks:   fileLinks,
		Data: models.NewExtractedData(
			extractTables(doc),
			firstUnique(dateRe.FindAllString(text, -1), models.MaxDates),
			firstUnique(amountRe.FindAllString(text, -1), models.MaxAmounts),
			contacts,
		),
	}

	ex.Counts = models.Metadata{
		ContentLength: len([]rune(text)),
		WordCount:     len(strings.Fields(text)),
		LinkCount:     doc.Find("a[href]").Length(),
		ImageCount:    doc.Find("img").Length(),
		TableCount:    doc.Find("table").Length(),
		FormCount:     doc.Find("form").Length(),
	}

	return ex
}

func pageTitle(doc *goquery.Document) string {
	if title := clean(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return clean(og)
	}
	return clean(doc.Find("h1").First().Text())
}

func metaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok {
		return clean(desc)
	}
	if og, ok := doc.Find("meta[property='og:description']").Attr("content"); ok {
		return clean(og)
	}
	return ""
}

// pageText returns the whitespace-collapsed body text without scripts and styles.
func pageText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	body = body.Clone()
	body.Find(nonContentSelectors).Remove()
	return clean(body.Text())
}

// extractTables reads the first MaxTables tables. Header cells come from th
// elements; data rows are tr elements with at least one td.
func extractTables(doc *goquery.Document) []models.Table {
	var tables []models.Table

	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		if len(tables) >= models.MaxTables {
			return false
		}

		table := models.Table{Headers: []string{}, Rows: [][]string{}}
		tbl.Find("th").Each(func(_ int, th *goquery.Selection) {
			table.Headers = append(table.Headers, clean(th.Text()))
		})

		tbl.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if len(table.Rows) >= models.MaxTableRows {
				return false
			}
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return true
			}
			row := make([]string, 0, cells.Length())
			cells.Each(func(_ int, td *goquery.Selection) {
				row = append(row, clean(td.Text()))
			})
			table.Rows = append(table.Rows, row)
			return true
		})

		tables = append(tables, table)
		return true
	})

	return tables
}

// collectLinks returns resolved page links, document links and mailto contacts, each deduped.
func collectLinks(doc *goquery.Document, pageURL string) (links, fileLinks, contacts []string) {
	seenLink := make(map[string]struct{})
	seenFile := make(map[string]struct{})
	seenContact := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)

		if strings.HasPrefix(strings.ToLower(href), "mailto:") {
			addr := href[len("mailto:"):]
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			addr = strings.ToLower(strings.TrimSpace(addr))
			if _, ok := seenContact[addr]; addr != "" && !ok && len(contacts) < models.MaxContacts {
				seenContact[addr] = struct{}{}
				contacts = append(contacts, addr)
			}
			return
		}

		abs := utils.MakeAbsoluteURL(pageURL, href)
		if abs == "" {
			return
		}
		if utils.IsFileLink(abs) {
			if _, ok := seenFile[abs]; !ok {
				seenFile[abs] = struct{}{}
				fileLinks = append(fileLinks, abs)
			}
			return
		}
		if _, ok := seenLink[abs]; !ok {
			seenLink[abs] = struct{}{}
			links = append(links, abs)
		}
	})

	return links, fileLinks, contacts
}

func firstUnique(matches []string, limit int) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, min(len(matches), limit))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

func clean(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
