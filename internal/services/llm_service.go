package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/sync/errgroup"
)

var errNoModel = errors.New("no language model configured")

type LLMService struct {
	// Client is nil when no API key is configured; every feature then uses its fallback.
	Client llms.Model
}

// NewLLMService initializes the Gemini client. Without a key the service still works
// on heuristics only.
func NewLLMService(ctx context.Context, cfg config.AIConfig) *LLMService {
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY is empty, AI features will use heuristic fallbacks")
		return &LLMService{}
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.GeminiAPIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		log.Printf("⚠️  Failed to create Gemini client: %v", err)
		return &LLMService{}
	}
	return &LLMService{Client: llm}
}

func (s *LLMService) Enabled() bool {
	return s.Client != nil
}

// generateJSON sends prompt and decodes the first JSON object of the answer into out.
func (s *LLMService) generateJSON(ctx context.Context, prompt string, out any) error {
	if s.Client == nil {
		return errNoModel
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithTemperature(0.3))
	if err != nil {
		return err
	}
	raw, ok := extractJSON(resp)
	if !ok {
		return fmt.Errorf("no JSON object in model response")
	}
	return json.Unmarshal([]byte(raw), out)
}

func profileSummary(p *models.Profile) string {
	return fmt.Sprintf("Name: %s\nUniversity: %s\nMajor: %s\nGraduation year: %d\nLocation: %s\nSkills: %s\nInterests: %s\nBio: %s",
		p.FullName, p.University, p.Major, p.GraduationYear, p.Location,
		joinOrNone(p.Skills), joinOrNone(p.Interests), plainText(p.Bio))
}

func jobSummary(j *models.Job) string {
	remote := "no"
	if j.IsRemote {
		remote = "yes"
	}
	return fmt.Sprintf("Title: %s\nType: %s\nCategory: %s\nLocation: %s (remote: %s)\nRequired skills: %s\nRequirements: %s\nDescription: %s",
		j.Title, j.Type, j.Category, j.Location, remote,
		joinOrNone(j.Skills), plainText(j.Requirements), plainText(j.Description))
}

const matchScorePrompt = `You are a campus career advisor. Rate how well the candidate fits the job.

### CANDIDATE:
%s

### JOB:
%s

### OUTPUT:
Return valid JSON only, no markdown:
{"score": <integer 0-100>, "reason": "<one sentence>", "strengths": ["..."], "gaps": ["..."]}
`

// MatchScore asks the model for a compatibility score and falls back to HeuristicMatch.
func (s *LLMService) MatchScore(ctx context.Context, p *models.Profile, j *models.Job) MatchResult {
	var out MatchResult
	err := s.generateJSON(ctx, fmt.Sprintf(matchScorePrompt, profileSummary(p), jobSummary(j)), &out)
	if err == nil && (out.Score < 0 || out.Score > 100) {
		err = fmt.Errorf("score %d out of range", out.Score)
	}
	if err != nil {
		if !errors.Is(err, errNoModel) {
			log.Printf("⚠️  AI match scoring failed, using heuristic: %v", err)
		}
		return HeuristicMatch(p, j)
	}
	out.Source = SourceAI
	return out
}

type JobDraft struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills"`
}

type RefinedJob struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills"`
	Suggestions  []string `json:"suggestions"`
	Source       string   `json:"source"`
}

const refineJobPrompt = `You help students and faculty write clear campus job postings.
Improve the posting below: keep the meaning, fix grammar, make responsibilities and requirements concrete,
and list the skills a candidate needs. Do not invent compensation or dates.

### POSTING:
Title: %s
Skills: %s
Requirements: %s
Description: %s

### OUTPUT:
Return valid JSON only, no markdown:
{"title": "...", "description": "...", "requirements": "...", "skills": ["..."], "suggestions": ["..."]}
`

func (s *LLMService) RefineJob(ctx context.Context, in JobDraft) RefinedJob {
	var out RefinedJob
	prompt := fmt.Sprintf(refineJobPrompt, in.Title, joinOrNone(in.Skills), plainText(in.Requirements), plainText(in.Description))
	err := s.generateJSON(ctx, prompt, &out)
	if err == nil && (strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Description) == "") {
		err = errors.New("refined posting is missing title or description")
	}
	if err != nil {
		if !errors.Is(err, errNoModel) {
			log.Printf("⚠️  AI job refinement failed, using fallback: %v", err)
		}
		return refineJobFallback(in)
	}
	out.Source = SourceAI
	return out
}

func refineJobFallback(in JobDraft) RefinedJob {
	out := RefinedJob{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Requirements: strings.TrimSpace(in.Requirements),
		Skills:       in.Skills,
		Source:       SourceHeuristic,
	}
	if len(in.Skills) == 0 {
		out.Suggestions = append(out.Suggestions, "List the skills a candidate needs so students can find the posting.")
	}
	if len(plainText(in.Description)) < 200 {
		out.Suggestions = append(out.Suggestions, "Expand the description with day-to-day responsibilities and expected outcomes.")
	}
	if out.Requirements == "" {
		out.Suggestions = append(out.Suggestions, "Add requirements such as year of study, availability or prior coursework.")
	}
	if len(out.Title) > 80 {
		out.Suggestions = append(out.Suggestions, "Shorten the title to under 80 characters.")
	}
	return out
}

type ResumeAnalysis struct {
	Score        int      `json:"score"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Keywords     []string `json:"keywords"`
	Source       string   `json:"source"`
}

const resumePrompt = `You are a university career-services reviewer. Review the resume text of the student below.

### STUDENT PROFILE:
%s

### RESUME TEXT:
%s

### OUTPUT:
Return valid JSON only, no markdown:
{"score": <integer 0-100>, "summary": "...", "strengths": ["..."], "improvements": ["..."], "keywords": ["..."]}
`

func (s *LLMService) AnalyzeResume(ctx context.Context, p *models.Profile, resumeText string) ResumeAnalysis {
	var out ResumeAnalysis
	err := s.generateJSON(ctx, fmt.Sprintf(resumePrompt, profileSummary(p), plainText(resumeText)), &out)
	if err == nil && (out.Score < 0 || out.Score > 100) {
		err = fmt.Errorf("score %d out of range", out.Score)
	}
	if err != nil {
		if !errors.Is(err, errNoModel) {
			log.Printf("⚠️  AI resume analysis failed, using heuristic: %v", err)
		}
		return analyzeResumeFallback(p, resumeText)
	}
	out.Source = SourceAI
	return out
}

var resumeSections = []string{"education", "experience", "skills", "projects"}

// analyzeResumeFallback: 20 base, 15 per standard section, up to 20 for profile skills found in the text.
func analyzeResumeFallback(p *models.Profile, text string) ResumeAnalysis {
	lower := strings.ToLower(text)
	out := ResumeAnalysis{Score: 20, Source: SourceHeuristic}
	for _, section := range resumeSections {
		if strings.Contains(lower, section) {
			out.Score += 15
			out.Strengths = append(out.Strengths, "Has a "+section+" section")
		} else {
			out.Improvements = append(out.Improvements, "Add a "+section+" section")
		}
	}
	for _, skill := range p.Skills {
		if k := normalizeSkill(skill); k != "" && strings.Contains(lower, k) {
			out.Keywords = append(out.Keywords, skill)
		}
	}
	if len(p.Skills) > 0 {
		out.Score += int(20 * float64(len(out.Keywords)) / float64(len(p.Skills)))
		if len(out.Keywords) < len(p.Skills) {
			out.Improvements = append(out.Improvements, "Mention the skills from your profile in the resume")
		}
	}
	if len(strings.Fields(text)) < 150 {
		out.Improvements = append(out.Improvements, "Resume is short; describe outcomes of your work with numbers")
	}
	if out.Score > 100 {
		out.Score = 100
	}
	out.Summary = fmt.Sprintf("Found %d of %d standard sections.", len(out.Strengths), len(resumeSections))
	return out
}

type InterviewTips struct {
	Tips      []string `json:"tips"`
	Questions []string `json:"questions"`
	Source    string   `json:"source"`
}

const interviewPrompt = `You are coaching a student for an interview.

### CANDIDATE:
%s

### JOB:
%s

### OUTPUT:
Return valid JSON only, no markdown:
{"tips": ["..."], "questions": ["likely interview question", "..."]}
`

func (s *LLMService) InterviewTips(ctx context.Context, p *models.Profile, j *models.Job) InterviewTips {
	var out InterviewTips
	err := s.generateJSON(ctx, fmt.Sprintf(interviewPrompt, profileSummary(p), jobSummary(j)), &out)
	if err == nil && len(out.Tips) == 0 {
		err = errors.New("no tips returned")
	}
	if err != nil {
		if !errors.Is(err, errNoModel) {
			log.Printf("⚠️  AI interview tips failed, using fallback: %v", err)
		}
		return interviewTipsFallback(j)
	}
	out.Source = SourceAI
	return out
}

func interviewTipsFallback(j *models.Job) InterviewTips {
	out := InterviewTips{
		Tips: []string{
			"Research the team or lab behind \"" + j.Title + "\" and mention something specific.",
			"Prepare a two-minute story about a project you are proud of.",
			"Have questions ready about expectations, schedule and mentorship.",
			"Test your camera and microphone before the video call.",
		},
		Questions: []string{"Why are you interested in this role?", "Tell us about a time you solved a hard problem."},
		Source:    SourceHeuristic,
	}
	for _, skill := range j.Skills {
		out.Questions = append(out.Questions, "Describe a project where you used "+skill+".")
	}
	return out
}

const coverLetterPrompt = `Write a concise, sincere cover letter (under 250 words) from the student to the job poster.
Use only facts from the candidate profile.

### CANDIDATE:
%s

### JOB:
%s

### OUTPUT:
Return valid JSON only, no markdown:
{"coverLetter": "..."}
`

func (s *LLMService) CoverLetter(ctx context.Context, p *models.Profile, j *models.Job) (string, string) {
	var out struct {
		CoverLetter string `json:"coverLetter"`
	}
	err := s.generateJSON(ctx, fmt.Sprintf(coverLetterPrompt, profileSummary(p), jobSummary(j)), &out)
	if err == nil && strings.TrimSpace(out.CoverLetter) == "" {
		err = errors.New("empty cover letter")
	}
	if err != nil {
		if !errors.Is(err, errNoModel) {
			log.Printf("⚠️  AI cover letter failed, using template: %v", err)
		}
		return coverLetterFallback(p, j), SourceHeuristic
	}
	return out.CoverLetter, SourceAI
}

func coverLetterFallback(p *models.Profile, j *models.Job) string {
	var b strings.Builder
	b.WriteString("Dear hiring team,\n\n")
	fmt.Fprintf(&b, "I am excited to apply for the %s position.", j.Title)
	if p.Major != "" {
		fmt.Fprintf(&b, " I am studying %s at %s.", p.Major, orDefault(p.University, "my university"))
	}
	if m := HeuristicMatch(p, j); len(m.Strengths) > 0 {
		fmt.Fprintf(&b, " %s.", m.Strengths[0])
	}
	b.WriteString(" I would welcome the chance to discuss how I can contribute.\n\nBest regards,\n")
	b.WriteString(p.FullName)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// recommendConcurrency bounds parallel model calls for one request.
const recommendConcurrency = 3

// Recommend pre-ranks jobs with the heuristic, then scores the best candidates
// with the model in parallel and returns the top n.
func (s *LLMService) Recommend(ctx context.Context, p *models.Profile, jobs []models.Job, n int) []ScoredJob {
	ranked := RankJobs(p, jobs)
	if !s.Enabled() {
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		return ranked
	}

	candidates := ranked
	if len(candidates) > 2*n {
		candidates = candidates[:2*n]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recommendConcurrency)
	for i := range candidates {
		g.Go(func() error {
			candidates[i].Match = s.MatchScore(gctx, p, &candidates[i].Job)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].Match.Score > candidates[b].Match.Score })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
