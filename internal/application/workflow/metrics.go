package workflow

import (
	"math"
	"strings"
	"unicode"

	"github.com/aescanero/pitchgraph/internal/domain"
)

const (
	silenceThresholdDb = -50
	// syllablesPerWord converts syllables per minute into words per minute.
	syllablesPerWord = 1.6
)

// fillerWords are matched one transcribed word at a time.
var fillerWords = map[string]struct{}{
	"um":       {},
	"uh":       {},
	"like":     {},
	"so":       {},
	"actually": {},
}

func isFiller(word string) bool {
	w := strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
	_, ok := fillerWords[w]
	return ok
}

// deriveMetrics computes delivery metrics from word timings and loudness
// samples. Missing inputs leave the corresponding metric at zero.
func deriveMetrics(t *domain.Transcription) domain.DeliveryMetrics {
	var m domain.DeliveryMetrics

	if n := len(t.WordAnalysis); n > 0 {
		var spm float64
		fillers := 0
		for _, w := range t.WordAnalysis {
			spm += w.SyllablesPerMinute
			if isFiller(w.Word) {
				fillers++
			}
		}
		m.PaceWpm = round(spm/float64(n)/syllablesPerWord, 2)

		var duration float64
		for _, ts := range t.Timestamps {
			duration = math.Max(duration, ts[0])
		}
		if duration > 0 {
			m.FillerWordsPerMin = round(float64(fillers)/(duration/60), 2)
		}
	}

	if n := len(t.Loudness); n > 0 {
		var sum float64
		silent := 0
		for _, point := range t.Loudness {
			sum += point[1]
			if point[1] < silenceThresholdDb {
				silent++
			}
		}
		m.AvgVolumeDb = round(sum/float64(n), 2)
		m.SilenceRatio = round(float64(silent)/float64(n), 3)
	}

	return m
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
