package chat

import (
	"fmt"
	"strings"

	"github.com/artem13815/cogniscan/pkg/document"
	"github.com/artem13815/cogniscan/pkg/nlp"
)

const maxFallbackNames = 5

// Fallback строит ответ без модели: чистая функция от вопроса и списка
// обработанных документов. Одинаковые аргументы дают одинаковый ответ.
func Fallback(query string, docs []document.Document) string {
	if len(docs) == 0 {
		return "No processed resumes yet. Upload resumes and ask again."
	}

	q := nlp.Normalize(query)
	tokens := nlp.Tokens(q)

	if display, names := skillMentions(q, docs); display != "" {
		return fmt.Sprintf("Found %d candidate(s) mentioning %s: %s. Use the search endpoint for ranked matching.",
			len(names), display, joinNames(names))
	}

	if nlp.ContainsPhrase(q, "how many") || hasToken(tokens, "count") {
		return fmt.Sprintf("There are %d processed resumes available for search.", len(docs))
	}

	if hasToken(tokens, "experience", "experienced", "senior", "seniority", "years") {
		top := docs[0]
		for _, d := range docs[1:] {
			if d.Facts.YearsExperience > top.Facts.YearsExperience {
				top = d
			}
		}
		return fmt.Sprintf("The most experienced candidate is %s (%.1f years, %s).",
			displayName(top), top.Facts.YearsExperience, valueOr(top.Facts.Domain, "general"))
	}

	return fmt.Sprintf("I can answer questions about %d processed resumes. "+
		"Ask about a specific skill, for example: \"Who knows Python?\", "+
		"or use the search endpoint for ranked matching.", len(docs))
}

// skillMentions ищет в вопросе первый навык, встречающийся у кандидатов,
// и возвращает его отображаемое имя вместе с именами этих кандидатов.
func skillMentions(q string, docs []document.Document) (string, []string) {
	var display, matched string
outer:
	for _, d := range docs {
		for _, sk := range d.Facts.Skills {
			for _, v := range nlp.SkillVariants(sk) {
				if nlp.ContainsPhrase(q, v) {
					display, matched = sk, nlp.Normalize(sk)
					break outer
				}
			}
		}
	}
	if matched == "" {
		return "", nil
	}

	matchedSet := map[string]struct{}{}
	for _, v := range nlp.SkillVariants(matched) {
		matchedSet[v] = struct{}{}
	}
	var names []string
	for _, d := range docs {
		for _, sk := range d.Facts.Skills {
			if _, ok := matchedSet[nlp.Normalize(sk)]; ok {
				names = append(names, displayName(d))
				break
			}
		}
	}
	return display, names
}

func joinNames(names []string) string {
	if len(names) <= maxFallbackNames {
		return strings.Join(names, ", ")
	}
	rest := len(names) - maxFallbackNames
	return strings.Join(names[:maxFallbackNames], ", ") + fmt.Sprintf(" and %d more", rest)
}

func hasToken(tokens map[string]struct{}, wanted ...string) bool {
	for _, w := range wanted {
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	return false
}
