package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/cogniscan/pkg/document"
	"github.com/artem13815/cogniscan/pkg/nlp"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50

	skillMatchScore = 10
	tokenMatchScore = 5

	highThreshold   = 70
	mediumThreshold = 40
)

// Request — параметры поиска кандидатов.
type Request struct {
	Query         string   `json:"query"`
	Skills        []string `json:"skills,omitempty"`
	Domain        string   `json:"domain,omitempty"`
	MinExperience *float64 `json:"minExperience,omitempty"`
	MaxExperience *float64 `json:"maxExperience,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// Candidate — один результат поиска.
type Candidate struct {
	DocumentID      uuid.UUID `json:"documentId"`
	CandidateName   string    `json:"candidateName"`
	CurrentRole     string    `json:"currentRole"`
	CurrentCompany  string    `json:"currentCompany"`
	MatchPercentage int       `json:"matchPercentage"`
	RelevanceScore  string    `json:"relevanceScore"`
	SkillsMatch     []string  `json:"skillsMatch"`
	Justification   string    `json:"justification"`
	Highlights      []string  `json:"highlights"`
}

type Response struct {
	Query      string      `json:"query"`
	Candidates []Candidate `json:"candidates"`
	TotalFound int         `json:"totalFound"`
	SearchTime float64     `json:"searchTime"`
}

// UseCase — сценарии поиска по обработанным документам.
type UseCase interface {
	Search(ctx context.Context, req Request) (Response, error)
}

type service struct {
	repo   document.Repository
	logger *slog.Logger
}

func NewService(repo document.Repository, logger *slog.Logger) UseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, logger: logger}
}

// Search оценивает обработанные документы по ключевым словам запроса:
// +10 за каждый запрошенный навык, найденный у кандидата (с учётом
// синонимов), +5 за каждый токен запроса в полях кандидата. Балл
// ограничен сотней.
func (s *service) Search(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	docs, err := s.repo.ListProcessed(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("list processed documents: %w", err)
	}

	queryTokens := nlp.TokensList(nlp.Normalize(req.Query))

	candidates := []Candidate{}
	for _, doc := range docs {
		if !matchesFilters(doc, req) {
			continue
		}
		score, skillsMatch := scoreDocument(doc, req.Skills, queryTokens)
		candidates = append(candidates, buildCandidate(doc, score, skillsMatch))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchPercentage > candidates[j].MatchPercentage
	})
	total := len(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	elapsed := time.Since(start).Seconds()
	s.logger.Info("search.done",
		"query", req.Query,
		"total_found", total,
		"returned", len(candidates),
		"elapsed_sec", elapsed,
	)
	return Response{
		Query:      req.Query,
		Candidates: candidates,
		TotalFound: total,
		SearchTime: elapsed,
	}, nil
}

func matchesFilters(doc document.Document, req Request) bool {
	if req.Domain != "" && doc.Facts.Domain != req.Domain {
		return false
	}
	if req.MinExperience != nil && doc.Facts.YearsExperience < *req.MinExperience {
		return false
	}
	if req.MaxExperience != nil && doc.Facts.YearsExperience > *req.MaxExperience {
		return false
	}
	return true
}

func scoreDocument(doc document.Document, wantedSkills []string, queryTokens []string) (int, []string) {
	score := 0
	skillsMatch := []string{}

	docSkills := map[string]struct{}{}
	for _, s := range doc.Facts.Skills {
		docSkills[nlp.Normalize(s)] = struct{}{}
	}
	for _, wanted := range wantedSkills {
		for _, variant := range nlp.SkillVariants(wanted) {
			if _, ok := docSkills[variant]; ok {
				score += skillMatchScore
				skillsMatch = append(skillsMatch, wanted)
				break
			}
		}
	}

	searchable := nlp.Normalize(searchableText(doc))
	for _, token := range queryTokens {
		if nlp.ContainsPhrase(searchable, token) {
			score += tokenMatchScore
		}
	}

	if score > 100 {
		score = 100
	}
	return score, skillsMatch
}

func searchableText(doc document.Document) string {
	parts := []string{
		doc.Facts.Name,
		doc.Facts.CurrentRole,
		doc.Facts.CurrentCompany,
		doc.Facts.Domain,
	}
	parts = append(parts, doc.Facts.Skills...)
	return strings.Join(parts, " ")
}

func buildCandidate(doc document.Document, score int, skillsMatch []string) Candidate {
	relevance := "Low"
	switch {
	case score >= highThreshold:
		relevance = "High"
	case score >= mediumThreshold:
		relevance = "Medium"
	}

	highlights := []string{}
	highlights = append(highlights, doc.Facts.Skills...)
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return Candidate{
		DocumentID:      doc.ID,
		CandidateName:   orUnknown(doc.Facts.Name),
		CurrentRole:     orUnknown(doc.Facts.CurrentRole),
		CurrentCompany:  orUnknown(doc.Facts.CurrentCompany),
		MatchPercentage: score,
		RelevanceScore:  relevance,
		SkillsMatch:     skillsMatch,
		Justification:   fmt.Sprintf("Found %d matching skills and relevant experience", len(skillsMatch)),
		Highlights:      highlights,
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
