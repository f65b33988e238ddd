package planner

import (
	"fmt"
	"strings"

	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/pkg/utils"
)

// documentContextChars bounds the source excerpt included in each chapter prompt.
const documentContextChars = 4000

const chapterSystemPrompt = `You write scripts for an educational podcast with several speakers.
Return a JSON object:
{"title":"chapter title","summary":"two sentences",
 "segments":[{"speaker":"one of the listed roles","text":"what they say","concepts":["concept name"]}]}
Alternate speakers naturally and give every listed role at least one turn. Keep each turn
to a few sentences. Only mention concept names from the list. Return JSON only.`

const questionsSystemPrompt = `You prepare companion material for an educational podcast.
Return a JSON object:
{"title":"podcast title","description":"two or three sentences",
 "questions":[{"question":"what a listener might ask","answer":"a clear spoken answer","concepts":["concept name"]}]}
Only reference concept names from the list. Return JSON only.`

type chapterPromptInput struct {
	index, total int
	concepts     []models.ConceptNode
	roles        []models.Role
	profiles     []models.VoiceProfile
	words        int
	language     string
	style        string
	previous     string
	context      string
}

func chapterPrompt(in chapterPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter %d of %d. Language code: %s. Target length: about %d words.\n", in.index+1, in.total, in.language, in.words)
	if in.style != "" {
		fmt.Fprintf(&b, "Style: %s.\n", in.style)
	}
	if in.previous != "" {
		fmt.Fprintf(&b, "The previous chapter was %q; continue from it without repeating the introduction.\n", in.previous)
	}
	b.WriteString("\nSpeakers:\n")
	for _, r := range in.roles {
		desc := ""
		for _, p := range in.profiles {
			if p.Role == r && p.Description != "" {
				desc = " (" + p.Description + ")"
				break
			}
		}
		fmt.Fprintf(&b, "- %s%s\n", r, desc)
	}
	b.WriteString("\nConcepts to cover in this order:\n")
	for _, c := range in.concepts {
		fmt.Fprintf(&b, "- %s [%s]: %s\n", c.Name, c.Difficulty, c.Description)
	}
	if in.context != "" {
		b.WriteString("\nSource material:\n")
		b.WriteString(in.context)
		b.WriteByte('\n')
	}
	return b.String()
}

func questionsPrompt(language string, titles []string, chapters []models.PodcastChapter, concepts []models.ConceptNode, min, max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Language code: %s. Write between %d and %d questions.\n", language, min, max)
	fmt.Fprintf(&b, "Source documents: %s\n\nChapters:\n", strings.Join(titles, "; "))
	for _, ch := range chapters {
		fmt.Fprintf(&b, "- %s: %s\n", ch.Title, ch.Summary)
	}
	b.WriteString("\nConcepts discussed:\n")
	for _, c := range concepts {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	return b.String()
}

func moreQuestionsPrompt(language string, concepts []models.ConceptNode, existing []string, missing int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Language code: %s. Write exactly %d more questions.\n", language, missing)
	b.WriteString("Every question must name at least one of these concepts in \"concepts\":\n")
	for _, c := range concepts {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	if len(existing) > 0 {
		b.WriteString("\nDo not repeat these questions:\n")
		for _, q := range existing {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}

// documentContext renders a bounded excerpt of every document for grounding.
func documentContext(docs []models.DocumentContent) string {
	if len(docs) == 0 {
		return ""
	}
	per := documentContextChars / len(docs)
	var parts []string
	for _, d := range docs {
		text := utils.CollapseWhitespace(d.Content)
		if text == "" {
			continue
		}
		parts = append(parts, "# "+d.Title+"\n"+utils.Truncate(text, per))
	}
	return strings.Join(parts, "\n\n")
}
