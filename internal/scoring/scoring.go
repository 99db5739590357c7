// Package scoring aggregates judge verdicts into a debate result.
// Persisting the rows is the caller's concern.
package scoring

import "math"

type JudgeScore struct {
	JudgeID  int64  `json:"judge_id"`
	ProScore int    `json:"pro_score"`
	ConScore int    `json:"con_score"`
	Comments string `json:"comments,omitempty"`
}

type Result struct {
	Scores     []JudgeScore `json:"scores"`
	ProTotal   int          `json:"pro_total"`
	ConTotal   int          `json:"con_total"`
	ProAvg     float64      `json:"pro_avg"`
	ConAvg     float64      `json:"con_avg"`
	Winner     string       `json:"winner"`
	JudgeCount int          `json:"judge_count"`
}

// Baseline derives a fallback score pair from speech participation:
// 60 plus up to 40 points proportional to each side's share.
func Baseline(proCount, conCount int) (pro, con int) {
	total := proCount + conCount
	if total < 1 {
		total = 1
	}
	pro = int(math.Round(60 + 40*float64(proCount)/float64(total)))
	con = int(math.Round(60 + 40*float64(conCount)/float64(total)))
	return pro, con
}

// Aggregate sums and averages the judges' scores and names the winner.
// An empty input yields a draw with zero totals.
func Aggregate(scores []JudgeScore) Result {
	result := Result{Scores: scores, Winner: "draw", JudgeCount: len(scores)}
	if len(scores) == 0 {
		return result
	}
	for _, s := range scores {
		result.ProTotal += s.ProScore
		result.ConTotal += s.ConScore
	}
	n := float64(len(scores))
	result.ProAvg = math.Round(float64(result.ProTotal)/n*100) / 100
	result.ConAvg = math.Round(float64(result.ConTotal)/n*100) / 100
	switch {
	case result.ProAvg > result.ConAvg:
		result.Winner = "pro"
	case result.ConAvg > result.ProAvg:
		result.Winner = "con"
	}
	return result
}
