package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-crawler/analyzer"
	"civic-crawler/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		url          string
		title        string
		text         string
		markup       string
		wantCategory string
		wantType     models.DataType
	}{
		{
			name:         "url planning",
			url:          "https://www.leeds.gov.uk/planning/applications",
			wantCategory: "Planning & Development",
			wantType:     models.DataTypePlanningApplication,
		},
		{
			name:         "url outranks title",
			url:          "https://www.leeds.gov.uk/council-tax/bands",
			title:        "Planning committee",
			wantCategory: "Council Tax",
			wantType:     models.DataTypeFinancialInfo,
		},
		{
			name:         "url rule order planning before meeting",
			url:          "https://democracy.leeds.gov.uk/planning-meetings",
			wantCategory: "Planning & Development",
			wantType:     models.DataTypePlanningApplication,
		},
		{
			name:         "title outranks content",
			url:          "https://www.leeds.gov.uk/about",
			title:        "Full Council Meeting - 12 March",
			text:         "£100",
			markup:       "<table><tr><td>£100</td></tr></table>",
			wantCategory: "Council Meetings",
			wantType:     models.DataTypeMeeting,
		},
		{
			name:         "title council tax",
			url:          "https://www.leeds.gov.uk/pay",
			title:        "Pay your Council Tax",
			wantCategory: "Council Tax",
			wantType:     models.DataTypeFinancialInfo,
		},
		{
			name:         "host is ignored for url rules",
			url:          "https://news.leeds.gov.uk/about",
			wantCategory: analyzer.DefaultCategory,
			wantType:     models.DataTypeCouncilPage,
		},
		{
			name:         "content pound sign first",
			url:          "https://www.leeds.gov.uk/about",
			text:         "Councillor allowance £12,000",
			markup:       "<p>Councillor allowance £12,000</p><table></table>",
			wantCategory: "Financial Information",
			wantType:     models.DataTypeFinancialInfo,
		},
		{
			name:         "content councillor",
			url:          "https://www.leeds.gov.uk/about",
			text:         "Councillor Jane Smith",
			markup:       "<p>Councillor Jane Smith</p><form></form>",
			wantCategory: "Councillors",
			wantType:     models.DataTypeCouncillor,
		},
		{
			name:         "content table any case",
			url:          "https://www.leeds.gov.uk/about",
			text:         "1",
			markup:       "<TABLE><tr><td>1</td></tr></TABLE><form>",
			wantCategory: "Data & Statistics",
			wantType:     models.DataTypeDataTable,
		},
		{
			name:         "content form",
			url:          "https://www.leeds.gov.uk/about",
			markup:       `<form action="/report">`,
			wantCategory: "Forms & Services",
			wantType:     models.DataTypeServiceForm,
		},
		{
			name:         "pound entity in markup only",
			url:          "https://www.leeds.gov.uk/about",
			markup:       "<p>&pound;12,000</p>",
			wantCategory: analyzer.DefaultCategory,
			wantType:     models.DataTypeCouncilPage,
		},
		{
			name:         "councillor in markup attribute only",
			url:          "https://www.leeds.gov.uk/about",
			text:         "Contact us",
			markup:       `<a class="Councillor-link">Contact us</a>`,
			wantCategory: analyzer.DefaultCategory,
			wantType:     models.DataTypeCouncilPage,
		},
		{
			name:         "default",
			url:          "https://www.leeds.gov.uk/about",
			title:        "About us",
			text:         "hello",
			markup:       "<p>hello</p>",
			wantCategory: analyzer.DefaultCategory,
			wantType:     models.DataTypeCouncilPage,
		},
		{
			name:         "news maps to general",
			url:          "https://www.leeds.gov.uk/news/latest",
			wantCategory: "News & Updates",
			wantType:     models.DataTypeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyzer.Classify(tt.url, tt.title, tt.text, tt.markup)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantType, got.DataType)

			assert.Equal(t, got, analyzer.Classify(tt.url, tt.title, tt.text, tt.markup))
		})
	}
}

func TestClassifyPage_DecodesEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"named entity", "<html><body><p>Annual allowance &pound;12,000 paid monthly.</p></body></html>"},
		{"numeric entity", "<html><body><p>Annual allowance &#163;12,000 paid monthly.</p></body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := analyzer.Page{URL: "https://www.leeds.gov.uk/about", Body: []byte(tt.body)}
			ex, err := analyzer.ExtractPage(page, 10)
			require.NoError(t, err)
			require.NotEmpty(t, ex.Data.Amounts)

			got := analyzer.ClassifyPage(page, ex)
			assert.Equal(t, models.DataTypeFinancialInfo, got.DataType)
			assert.Equal(t, "Financial Information", got.Category)
		})
	}
}
