package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-crawler/utils"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase scheme and host", "HTTPS://Leeds.GOV.uk/Planning", "https://leeds.gov.uk/Planning", false},
		{"strip trailing slash", "https://leeds.gov.uk/planning/", "https://leeds.gov.uk/planning", false},
		{"keep root", "https://leeds.gov.uk", "https://leeds.gov.uk/", false},
		{"strip fragment", "https://leeds.gov.uk/news#top", "https://leeds.gov.uk/news", false},
		{"drop default port", "https://leeds.gov.uk:443/news", "https://leeds.gov.uk/news", false},
		{"keep other port", "http://leeds.gov.uk:8080/news", "http://leeds.gov.uk:8080/news", false},
		{"sort query", "https://leeds.gov.uk/s?z=1&a=2", "https://leeds.gov.uk/s?a=2&z=1", false},
		{"strip tracking", "https://leeds.gov.uk/s?utm_source=x&id=4", "https://leeds.gov.uk/s?id=4", false},
		{"resolve dot segments", "https://leeds.gov.uk/a/./b/../c", "https://leeds.gov.uk/a/c", false},
		{"empty", "", "", true},
		{"relative", "/planning", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := utils.NormalizeURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_EquivalentFormsCollapse(t *testing.T) {
	t.Parallel()

	a, err := utils.NormalizeURL("https://York.gov.uk/bins/")
	require.NoError(t, err)
	b, err := utils.NormalizeURL("https://york.gov.uk/bins#collection")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestIsValidURL(t *testing.T) {
	t.Parallel()

	assert.True(t, utils.IsValidURL("https://leeds.gov.uk/planning"))
	assert.False(t, utils.IsValidURL("mailto:info@leeds.gov.uk"))
	assert.False(t, utils.IsValidURL("ftp://leeds.gov.uk/file"))
	assert.False(t, utils.IsValidURL("https://leeds.gov.uk/logo.png"))
	assert.False(t, utils.IsValidURL("https://leeds.gov.uk/budget.pdf"))
	assert.False(t, utils.IsValidURL(""))
}

func TestIsFileLink(t *testing.T) {
	t.Parallel()

	assert.True(t, utils.IsFileLink("https://leeds.gov.uk/docs/Budget-2024.PDF"))
	assert.True(t, utils.IsFileLink("https://leeds.gov.uk/data/spend.csv?v=2"))
	assert.False(t, utils.IsFileLink("https://leeds.gov.uk/planning"))
}

func TestMakeAbsoluteURL(t *testing.T) {
	t.Parallel()

	base := "https://leeds.gov.uk/council/meetings"

	assert.Equal(t, "https://leeds.gov.uk/council/agenda", utils.MakeAbsoluteURL(base, "agenda"))
	assert.Equal(t, "https://leeds.gov.uk/news", utils.MakeAbsoluteURL(base, "/news"))
	assert.Equal(t, "", utils.MakeAbsoluteURL(base, "#main"))
}

func TestExtractHost(t *testing.T) {
	t.Parallel()

	host, err := utils.ExtractHost("https://WWW.Leeds.gov.uk:443/x")
	require.NoError(t, err)
	assert.Equal(t, "www.leeds.gov.uk", host)

	_, err = utils.ExtractHost("/relative")
	assert.Error(t, err)
}
