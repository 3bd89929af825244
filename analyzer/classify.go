// Package analyzer turns a fetched page into a CrawlResult: it classifies the
// page, extracts structured facts, scores content quality and builds the
// citation. Everything here is pure and deterministic.
package analyzer

import (
	"net/url"
	"strings"

	"civic-crawler/models"
)

// DefaultCategory is used when no rule matches.
const DefaultCategory = "General"

// Classification is the two-level label of a page.
type Classification struct {
	Category string          `json:"category"`
	DataType models.DataType `json:"data_type"`
}

type keywordRule struct {
	urlKeyword   string
	titleKeyword string
	Classification
}

// keywordRules are evaluated in order against the URL path, then the title.
var keywordRules = []keywordRule{
	{"planning", "planning", Classification{"Planning & Development", models.DataTypePlanningApplication}},
	{"meeting", "meeting", Classification{"Council Meetings", models.DataTypeMeeting}},
	{"council-tax", "council tax", Classification{"Council Tax", models.DataTypeFinancialInfo}},
	{"councillor", "councillor", Classification{"Councillors", models.DataTypeCouncillor}},
	{"news", "news", Classification{"News & Updates", models.DataTypeGeneral}},
	{"benefit", "benefit", Classification{"Benefits & Support", models.DataTypeServiceForm}},
	{"housing", "housing", Classification{"Housing", models.DataTypeServiceForm}},
	{"school", "school", Classification{"Education & Schools", models.DataTypeCouncilPage}},
	{"business", "business", Classification{"Business & Licensing", models.DataTypeCouncilPage}},
	{"library", "library", Classification{"Libraries & Culture", models.DataTypeCouncilPage}},
}

type contentRule struct {
	marker   string
	inMarkup bool
	Classification
}

// contentRules are matched in order. Text markers are matched against the
// decoded page text, so entities like &pound; count; markup markers are
// matched case-insensitively against the raw HTML.
var contentRules = []contentRule{
	{"£", false, Classification{"Financial Information", models.DataTypeFinancialInfo}},
	{"Councillor", false, Classification{"Councillors", models.DataTypeCouncillor}},
	{"<table", true, Classification{"Data & Statistics", models.DataTypeDataTable}},
	{"<form", true, Classification{"Forms & Services", models.DataTypeServiceForm}},
}

var defaultClassification = Classification{DefaultCategory, models.DataTypeCouncilPage}

// ClassifyPage labels an extracted page.
func ClassifyPage(p Page, ex Extraction) Classification {
	return Classify(p.URL, ex.Title, ex.Text, string(p.Body))
}

// Classify labels a page from its URL, title, decoded text and raw markup.
// URL evidence outranks title evidence, which outranks content heuristics;
// the first matching rule wins.
func Classify(pageURL, title, text, markup string) Classification {
	path := strings.ToLower(pageURL)
	if u, err := url.Parse(pageURL); err == nil {
		path = strings.ToLower(u.Path)
	}
	for _, rule := range keywordRules {
		if strings.Contains(path, rule.urlKeyword) {
			return rule.Classification
		}
	}

	lowerTitle := strings.ToLower(title)
	for _, rule := range keywordRules {
		if strings.Contains(lowerTitle, rule.titleKeyword) {
			return rule.Classification
		}
	}

	lowerMarkup := strings.ToLower(markup)
	for _, rule := range contentRules {
		haystack := text
		if rule.inMarkup {
			haystack = lowerMarkup
		}
		if strings.Contains(haystack, rule.marker) {
			return rule.Classification
		}
	}

	return defaultClassification
}
