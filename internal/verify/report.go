package verify

import (
	"time"

	"github.com/TheMichaelB/crosscheck/internal/models"
)

// AlgorithmCounts aggregates results for one algorithm family.
type AlgorithmCounts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report aggregates a verification run over one platform dataset. Results
// stay in suite order regardless of how categories were scheduled; zero
// failures is the only success signal.
type Report struct {
	Platform  string                               `json:"platform"`
	Version   string                               `json:"version"`
	StartedAt time.Time                            `json:"started_at"`
	Duration  time.Duration                        `json:"duration"`
	Results   []models.VerificationResult          `json:"results"`
	Total     int                                  `json:"total"`
	Passed    int                                  `json:"passed"`
	Failed    int                                  `json:"failed"`
	ByAlg     map[models.Algorithm]AlgorithmCounts `json:"by_algorithm"`
}

// Success reports whether every item passed.
func (r *Report) Success() bool {
	return r.Failed == 0
}

// Failures returns the failed results, in report order.
func (r *Report) Failures() []models.VerificationResult {
	var failed []models.VerificationResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// add appends a result and updates the counters.
func (r *Report) add(res models.VerificationResult) {
	r.Results = append(r.Results, res)
	r.Total++

	counts := r.ByAlg[res.Algorithm]
	counts.Total++
	if res.Passed {
		r.Passed++
		counts.Passed++
	} else {
		r.Failed++
		counts.Failed++
	}
	r.ByAlg[res.Algorithm] = counts
}

func newReport(platform, version string) *Report {
	return &Report{
		Platform:  platform,
		Version:   version,
		StartedAt: time.Now().UTC(),
		ByAlg:     make(map[models.Algorithm]AlgorithmCounts),
	}
}
