package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/artem13815/cogniscan/pkg/document"
)

// FieldExtractor derives CandidateFacts from plain resume text using
// keyword and regex heuristics. Absence of any individual field is not an
// error: every field defaults to its zero value.
type FieldExtractor struct {
	referenceYear int
}

type FieldOption func(*FieldExtractor)

// WithReferenceYear fixes the year used to close open-ended "present"
// experience periods. Defaults to the current calendar year.
func WithReferenceYear(year int) FieldOption {
	return func(e *FieldExtractor) {
		if year > 0 {
			e.referenceYear = year
		}
	}
}

func NewFieldExtractor(opts ...FieldOption) *FieldExtractor {
	e := &FieldExtractor{referenceYear: time.Now().Year()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *FieldExtractor) Extract(text string) document.CandidateFacts {
	experience := extractExperience(text)
	role, company := extractCurrentPosition(text, experience)
	return document.CandidateFacts{
		Name:            extractName(text),
		Email:           extractEmail(text),
		Phone:           extractPhone(text),
		CurrentRole:     role,
		CurrentCompany:  company,
		YearsExperience: e.yearsExperience(experience),
		Domain:          classifyDomain(text),
		Skills:          extractSkills(text),
		Technologies:    extractTechnologies(text),
		Experience:      experience,
		Education:       extractEducation(text),
	}
}

var (
	nonNameWords = []string{"resume", "cv", "experience", "skills", "education", "phone", "email", "@"}
	anyLetter    = regexp.MustCompile(`[a-zA-Z]`)
)

// extractName берёт первую из десяти непустых строк, похожую на имя:
// 1-4 слова, длиннее двух символов, без служебных слов заголовка.
func extractName(text string) string {
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > 10 {
			break
		}
		if len(line) <= 2 {
			continue
		}
		if n := len(strings.Fields(line)); n == 0 || n > 4 {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, w := range nonNameWords {
			if strings.Contains(lower, w) {
				skip = true
				break
			}
		}
		if skip || !anyLetter.MatchString(line) {
			continue
		}
		return line
	}
	return ""
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}

// phonePatterns are tried in order; the submatches of the first hit are
// concatenated to form the number.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\+?1?[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
	regexp.MustCompile(`(\+91[-.\s]?)?([6-9]\d{9})`), // Indian mobile numbers
	regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?(\d{10,})`),
}

func extractPhone(text string) string {
	for _, p := range phonePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var sb strings.Builder
		for _, g := range m[1:] {
			sb.WriteString(g)
		}
		// the optional prefix group may capture the preceding separator
		return strings.TrimSpace(sb.String())
	}
	return ""
}

var skillKeywords = []string{
	"python", "java", "javascript", "react", "node.js", "sql", "aws",
	"docker", "kubernetes", "machine learning", "ai", "data science",
	"project management", "agile", "scrum", "git", "devops",
	"html", "css", "typescript", "angular", "vue", "mongodb",
	"postgresql", "mysql", "redis", "elasticsearch", "kafka",
	"spring", "django", "flask", "express", "fastapi", "rest api",
	"microservices", "cloud computing", "azure", "gcp", "jenkins",
	"ci/cd", "terraform", "ansible", "linux", "windows", "macos",
}

var technologyKeywords = []string{
	"python", "java", "javascript", "typescript", "react", "angular",
	"vue", "node.js", "express", "django", "flask", "spring",
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins",
	"git", "github", "gitlab", "jira", "confluence", "figma",
	"photoshop", "illustrator", "sketch",
}

func extractSkills(text string) []string {
	return matchKeywords(text, skillKeywords)
}

func extractTechnologies(text string) []string {
	return matchKeywords(text, technologyKeywords)
}

// matchKeywords выполняет регистронезависимый поиск ключевых слов по тексту.
// Найденные приводятся к Title Case и дедуплицируются.
func matchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	caser := cases.Title(language.English)
	out := []string{}
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		t := caser.String(kw)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

const (
	maxExperienceEntries = 5
	maxEducationEntries  = 3
)

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{4})\s*[-–]\s*(\d{4}|present|current)`),
	regexp.MustCompile(`(?i)(\d{4})\s*[-–]\s*(present|current)`),
	regexp.MustCompile(`(?i)(\d{1,2}/\d{4})\s*[-–]\s*(\d{1,2}/\d{4}|present|current)`),
}

var yearRun = regexp.MustCompile(`\d{4}`)

// extractExperience ищет строки с периодами работы ("2019 - 2022",
// "2021 - present", "03/2020 - 06/2022"). Роль берётся из предыдущей
// строки, компания — из следующей. Первый сработавший паттерн в строке
// выигрывает; собираются максимум пять записей сверху вниз.
func extractExperience(text string) []document.ExperienceItem {
	lines := strings.Split(text, "\n")
	items := []document.ExperienceItem{}
	for i, line := range lines {
		for _, p := range experiencePatterns {
			m := p.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			startTok, endTok := m[1], m[2]
			item := document.ExperienceItem{
				Start:  startTok,
				End:    endTok,
				Period: startTok + " - " + endTok,
			}
			if y := yearRun.FindString(startTok); y != "" {
				item.Start = y
			}
			if i > 0 {
				if prev := strings.TrimSpace(lines[i-1]); len(prev) > 3 {
					item.Role = prev
				}
			}
			if i < len(lines)-1 {
				if next := strings.TrimSpace(lines[i+1]); len(next) > 3 {
					item.Company = next
				}
			}
			items = append(items, item)
			break
		}
		if len(items) == maxExperienceEntries {
			break
		}
	}
	return items
}

var educationKeywords = []string{
	"education", "degree", "university", "college",
	"bachelor", "master", "phd", "b.tech", "m.tech", "mba",
}

func extractEducation(text string) []document.EducationItem {
	lines := strings.Split(text, "\n")
	items := []document.EducationItem{}
	for i, line := range lines {
		lower := strings.ToLower(line)
		matched := false
		for _, kw := range educationKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		item := document.EducationItem{Degree: strings.TrimSpace(line)}
		if i < len(lines)-1 {
			if next := strings.TrimSpace(lines[i+1]); len(next) > 3 {
				item.Institution = next
			}
		}
		items = append(items, item)
		if len(items) == maxEducationEntries {
			break
		}
	}
	return items
}

var currentPositionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)current(?:ly)?\s+(?:working\s+)?(?:as\s+)?(.+?)(?:at|@)\s+(.+)`),
	regexp.MustCompile(`(?i)(?:working\s+)?(?:as\s+)?(.+?)\s+(?:at|@)\s+(.+)`),
}

// extractCurrentPosition считает первую запись опыта самой свежей; если
// записей нет, пробует фразы вида "currently working as X at Y".
func extractCurrentPosition(text string, experience []document.ExperienceItem) (string, string) {
	if len(experience) > 0 {
		return experience[0].Role, experience[0].Company
	}
	for _, p := range currentPositionPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	return "", ""
}

// yearsExperience суммирует max(0, end-start) по всем записям; открытые
// периоды закрываются референсным годом.
func (e *FieldExtractor) yearsExperience(experience []document.ExperienceItem) float64 {
	total := 0
	for _, item := range experience {
		sy := yearRun.FindString(item.Start)
		if sy == "" {
			continue
		}
		start, _ := strconv.Atoi(sy)
		if start == 0 {
			continue
		}
		end := e.referenceYear
		switch strings.ToLower(item.End) {
		case "present", "current":
		default:
			if ey := yearRun.FindString(item.End); ey != "" {
				end, _ = strconv.Atoi(ey)
			}
		}
		if d := end - start; d > 0 {
			total += d
		}
	}
	return float64(total)
}

// domainGroups перебираются по порядку: первый найденный признак решает.
var domainGroups = []struct {
	label    string
	keywords []string
}{
	{"frontend", []string{"frontend", "ui", "ux", "react", "angular", "vue", "html", "css"}},
	{"backend", []string{"backend", "api", "server", "database", "sql", "nosql"}},
	{"fullstack", []string{"fullstack", "full-stack", "full stack"}},
	{"data_science", []string{"data science", "machine learning", "ai", "ml", "analytics"}},
	{"devops", []string{"devops", "cloud", "aws", "azure", "docker", "kubernetes"}},
	{"mobile", []string{"mobile", "ios", "android", "react native", "flutter"}},
	{"qa", []string{"qa", "testing", "quality assurance", "test automation"}},
	{"product", []string{"product", "project management", "agile", "scrum"}},
}

func classifyDomain(text string) string {
	lower := strings.ToLower(text)
	for _, g := range domainGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.label
			}
		}
	}
	return "general"
}
