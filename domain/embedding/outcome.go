package embedding

import "github.com/momah-portal/embedgen/domain/entity"

// Outcome is the per-record result of one invocation.
type Outcome struct {
	ID         string `json:"id"`
	Success    bool   `json:"success"`
	Dimensions int    `json:"dimensions,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Succeeded creates a successful outcome.
func Succeeded(id string, dimensions int) Outcome {
	return Outcome{ID: id, Success: true, Dimensions: dimensions}
}

// Failed creates a failed outcome carrying the reason.
func Failed(id string, err error) Outcome {
	return Outcome{ID: id, Success: false, Error: err.Error()}
}

// Summary aggregates the outcomes of one invocation.
type Summary struct {
	EntityName entity.Name
	Processed  int
	Successful int
	Failed     int
	Results    []Outcome
}

// NewSummary counts successes and failures over the outcomes.
func NewSummary(name entity.Name, results []Outcome) Summary {
	s := Summary{
		EntityName: name,
		Processed:  len(results),
		Results:    results,
	}
	for _, r := range results {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// Empty reports whether nothing was processed.
func (s Summary) Empty() bool { return s.Processed == 0 }
