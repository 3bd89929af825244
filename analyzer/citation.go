package analyzer

import (
	"strings"

	"civic-crawler/models"
	"civic-crawler/utils"
)

// DefaultGovSuffix marks UK government hosts.
const DefaultGovSuffix = ".gov.uk"

// BuildCitation derives the citation of a result. A page with at least one
// linked document is cited with high confidence.
func BuildCitation(pageURL, title string, fileLinks []string, govSuffix string) models.CitationInfo {
	host, err := utils.ExtractHost(pageURL)
	if err != nil {
		host = ""
	}

	links := append([]string{}, fileLinks...)

	confidence := models.ConfidenceMedium
	if len(links) > 0 {
		confidence = models.ConfidenceHigh
	}

	suffix := strings.ToLower(govSuffix)
	isGov := host != "" && suffix != "" &&
		(strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, "."))

	return models.CitationInfo{
		SourceURL:        pageURL,
		Title:            title,
		FileLinks:        links,
		Domain:           host,
		IsGovernmentSite: isGov,
		Confidence:       confidence,
	}
}
