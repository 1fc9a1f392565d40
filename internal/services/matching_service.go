package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/models"
)

const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
)

type MatchResult struct {
	Score     int      `json:"score"`
	Reason    string   `json:"reason"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Source    string   `json:"source"`
}

// HeuristicMatch scores a profile against a job without the model.
//
//	10 base
//	70 * share of job skills present in the profile (35 when the job lists none)
//	10 when an interest or the major shows up in the job text
//	10 when the job is remote or in the profile's location
func HeuristicMatch(p *models.Profile, j *models.Job) MatchResult {
	have := make(map[string]bool, len(p.Skills))
	for _, s := range p.Skills {
		if k := normalizeSkill(s); k != "" {
			have[k] = true
		}
	}

	var matched, missing []string
	for _, s := range j.Skills {
		k := normalizeSkill(s)
		if k == "" {
			continue
		}
		if have[k] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}

	score := 10
	total := len(matched) + len(missing)
	if total == 0 {
		score += 35
	} else {
		score += int(math.Round(70 * float64(len(matched)) / float64(total)))
	}

	var strengths, gaps []string
	if len(matched) > 0 {
		strengths = append(strengths, "Matches skills: "+strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		gaps = append(gaps, "Missing skills: "+strings.Join(missing, ", "))
	}

	jobText := strings.ToLower(j.Title + " " + j.Description + " " + j.Category)
	if term := firstMentioned(jobText, append(append([]string{}, p.Interests...), p.Major)); term != "" {
		score += 10
		strengths = append(strengths, "Related to your interest in "+term)
	}

	loc := strings.ToLower(strings.TrimSpace(p.Location))
	switch {
	case j.IsRemote:
		score += 10
		strengths = append(strengths, "Remote friendly")
	case loc != "" && strings.Contains(strings.ToLower(j.Location), loc):
		score += 10
		strengths = append(strengths, "Located in "+p.Location)
	}

	if score > 100 {
		score = 100
	}
	reason := fmt.Sprintf("Matched %d of %d listed skills", len(matched), total)
	if total == 0 {
		reason = "The job lists no specific skills"
	}
	return MatchResult{Score: score, Reason: reason, Strengths: strengths, Gaps: gaps, Source: SourceHeuristic}
}

type ScoredJob struct {
	Job   models.Job  `json:"job"`
	Match MatchResult `json:"match"`
}

// RankJobs orders jobs by heuristic score, best first. Ties keep the input order.
func RankJobs(p *models.Profile, jobs []models.Job) []ScoredJob {
	out := make([]ScoredJob, len(jobs))
	for i := range jobs {
		out[i] = ScoredJob{Job: jobs[i], Match: HeuristicMatch(p, &jobs[i])}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Match.Score > out[b].Match.Score })
	return out
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// firstMentioned returns the first term of at least three letters found in text.
func firstMentioned(text string, terms []string) string {
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if len(t) < 3 {
			continue
		}
		if strings.Contains(text, strings.ToLower(t)) {
			return t
		}
	}
	return ""
}
