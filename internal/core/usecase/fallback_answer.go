package usecase

import (
	"strconv"
	"strings"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

// templatedAnswer composes an answer from the context alone. Categories are
// tried in configured order among those the question mentions; the first
// one with a qualifying entry wins. The general template is used only when
// the question mentions no category.
func templatedAnswer(
	question string,
	entries []domain.ContextEntry,
	templates domain.AnswerTemplates,
) (string, []domain.Citation) {
	window := entries[:min(len(entries), max(templates.MaxEntries, 1))]
	lowerQuestion := strings.ToLower(question)

	mentioned := false
	for _, category := range templates.Categories {
		if !containsAny(lowerQuestion, category.QuestionKeywords) {
			continue
		}
		mentioned = true

		picked := make([]int, 0, len(window))
		for i, entry := range window {
			if entryQualifies(entry, category) {
				picked = append(picked, i)
			}
		}
		if len(picked) > 0 {
			return renderTemplate(category, category.Intro, window, picked, templates.DateLayout)
		}
	}

	if !mentioned && len(window) > 0 {
		picked := make([]int, len(window))
		for i := range window {
			picked[i] = i
		}
		intro := strings.ReplaceAll(templates.General.Intro, "{count}", strconv.Itoa(len(entries)))
		return renderTemplate(templates.General, intro, window, picked, templates.DateLayout)
	}

	return templates.Insufficient, []domain.Citation{}
}

// entryQualifies matches keywords against the full body; store snippets are
// a window around the query match and would miss the rest of the entry.
func entryQualifies(entry domain.ContextEntry, category domain.AnswerTemplate) bool {
	if hasAnyTag(entry.Tags, category.EntryTags) {
		return true
	}
	text := entry.Body
	if text == "" {
		text = entry.Snippet
	}
	return containsAny(strings.ToLower(text), category.EntryKeywords)
}

func renderTemplate(
	tpl domain.AnswerTemplate,
	intro string,
	window []domain.ContextEntry,
	picked []int,
	dateLayout string,
) (string, []domain.Citation) {
	if dateLayout == "" {
		dateLayout = "January 02"
	}

	parts := make([]string, 0, len(picked)+1)
	if intro = strings.TrimSpace(intro); intro != "" {
		parts = append(parts, intro)
	}
	citations := make([]domain.Citation, 0, len(picked))
	for _, i := range picked {
		entry := window[i]
		sentence := strings.NewReplacer(
			"{date}", entry.EntryDate.Format(dateLayout),
			"{n}", strconv.Itoa(i+1),
		).Replace(tpl.Sentence)
		parts = append(parts, strings.TrimSpace(sentence))
		citations = append(citations, newCitation(entry, i+1))
	}
	return strings.Join(parts, " "), citations
}
