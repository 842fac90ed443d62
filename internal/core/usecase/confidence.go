package usecase

import "github.com/kirillkom/journal-assistant/internal/core/domain"

const (
	maxConfidence        = 0.95
	confidentContextSize = 5.0
	confidentAnswerRunes = 200.0
)

// scoreConfidence averages context volume, mean relevance and answer length,
// each scaled to [0,1], and caps the result at 0.95.
func scoreConfidence(entries []domain.ContextEntry, answer string) float64 {
	if len(entries) == 0 {
		return 0
	}

	contextFactor := min(1.0, float64(len(entries))/confidentContextSize)

	relevance := 0.0
	for _, entry := range entries {
		relevance += entry.RelevanceScore
	}
	relevanceFactor := clampUnit(relevance / float64(len(entries)))

	lengthFactor := min(1.0, float64(len([]rune(answer)))/confidentAnswerRunes)

	return min(maxConfidence, (contextFactor+relevanceFactor+lengthFactor)/3.0)
}
