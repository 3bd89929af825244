package analyzer

import (
	"unicode/utf8"

	"civic-crawler/models"
)

// Scoring thresholds, in runes, and points.
const (
	titleShort, titleLong             = 10, 30
	titleShortPts, titleLongPts       = 10, 15
	descriptionShort, descriptionLong = 50, 150
	descShortPts, descLongPts         = 10, 10
	contentShort, contentLong         = 1000, 5000
	contentShortPts, contentLongPts   = 10, 20

	tableBonus   = 10
	contactBonus = 5
	dateBonus    = 5
	amountBonus  = 5

	maxPoints = 100
)

// Score computes the content quality of a page in [0, 1].
func Score(title, description, content string, data models.ExtractedData) float64 {
	points := tiered(utf8.RuneCountInString(title), titleShort, titleLong, titleShortPts, titleLongPts) +
		tiered(utf8.RuneCountInString(description), descriptionShort, descriptionLong, descShortPts, descLongPts) +
		tiered(utf8.RuneCountInString(content), contentShort, contentLong, contentShortPts, contentLongPts)

	if len(data.Tables) > 0 {
		points += tableBonus
	}
	if len(data.Contacts) > 0 {
		points += contactBonus
	}
	if len(data.Dates) > 0 {
		points += dateBonus
	}
	if len(data.Amounts) > 0 {
		points += amountBonus
	}

	return float64(min(points, maxPoints)) / maxPoints
}

func tiered(length, short, long, shortPts, longPts int) int {
	points := 0
	if length > short {
		points += shortPts
	}
	if length > long {
		points += longPts
	}
	return points
}

// Band buckets a quality score for human-readable reporting.
func Band(quality float64) models.QualityBand {
	switch {
	case quality >= 0.8:
		return models.BandExcellent
	case quality >= 0.6:
		return models.BandGood
	case quality >= 0.4:
		return models.BandAverage
	default:
		return models.BandPoor
	}
}
