package prompt

import (
	"fmt"
	"strings"

	"articlesum/internal/domain"
)

const (
	MaxContentRunes = 30000

	truncationMarker = " …[truncated]"

	styleInstructions = `short Markdown document with relevant sections, sub-sections with bulleted lists and sub-lists.
Be very short and succinct for each bullet item. Discard useless disclaimers and boilerplate cruft from the article.`

	summarizeInstructions = `Please summarize the above content into a ` + styleInstructions

	calendarizeInstructions = `Please extract the single most relevant event (date, time and place) described by the above content.
Use ISO 8601 UTC timestamps in the form YYYY-MM-DDTHH:MM:SSZ for "start" and "end".
If no end time is given, assume the event lasts one hour.`

	mergeInstructions = `Please incorporate information from the above site into my original Markdown notes (remove or combine duplicate information as needed).
Keep the original writing style of ` + styleInstructions + `
Feel free to create any new thematic sections or add a new sub-section if needed.
Remove any empty section or sub-section.
Respond with the complete updated Markdown document only.`
)

type Prompt struct {
	Text   string
	Fields []string
}

var fieldDescriptions = map[domain.Task]map[string]string{
	domain.TaskSummarize: {
		"title":   "a short, informative title for the article",
		"summary": "the Markdown summary document",
	},
	domain.TaskCalendarize: {
		"title":    "the event name",
		"start":    "the event start timestamp",
		"end":      "the event end timestamp",
		"location": "the event address or venue, empty if unknown",
		"details":  "a one-paragraph plain text description of the event",
	},
}

// Build renders the task prompt for doc. The output depends only on its
// arguments.
func Build(doc domain.ParsedDocument, task domain.Task) (Prompt, error) {
	var instructions string

	switch task {
	case domain.TaskSummarize:
		instructions = summarizeInstructions
	case domain.TaskCalendarize:
		instructions = calendarizeInstructions
	default:
		return Prompt{}, fmt.Errorf("unknown task: %s", task)
	}

	fields := task.Fields()

	var b strings.Builder
	writeDocument(&b, doc)
	b.WriteString("\n")
	b.WriteString(instructions)
	b.WriteString("\n\n")
	writeSchema(&b, fields, fieldDescriptions[task])

	return Prompt{Text: b.String(), Fields: fields}, nil
}

// BuildMerge asks the model to fold doc into existing Markdown notes. Empty
// notes produce a plain summarize prompt without a JSON schema.
func BuildMerge(notes string, doc domain.ParsedDocument) Prompt {
	notes = strings.TrimSpace(notes)

	var b strings.Builder
	if notes == "" {
		writeDocument(&b, doc)
		b.WriteString("\n")
		b.WriteString(summarizeInstructions)
		b.WriteString("\nRespond with the Markdown document only.\n")

		return Prompt{Text: b.String()}
	}

	b.WriteString("I have the following Markdown document of my notes:\n\n")
	b.WriteString(notes)
	b.WriteString("\n\nAlso, ")
	writeDocument(&b, doc)
	b.WriteString("\n")
	b.WriteString(mergeInstructions)
	b.WriteString("\n")

	return Prompt{Text: b.String()}
}

func writeDocument(b *strings.Builder, doc domain.ParsedDocument) {
	b.WriteString("I have extracted the following information from this site:\n")
	fmt.Fprintf(b, "url: %s\n", strings.TrimSpace(doc.SourceURL))
	fmt.Fprintf(b, "title: %s\n", strings.TrimSpace(doc.Title))
	fmt.Fprintf(b, "description: %s\n", strings.TrimSpace(doc.Description))
	fmt.Fprintf(b, "content: %s\n", truncate(strings.TrimSpace(doc.PlainText), MaxContentRunes))
}

func writeSchema(b *strings.Builder, fields []string, descriptions map[string]string) {
	b.WriteString("Respond with a single JSON object and nothing else. The object must have exactly these string fields:\n")
	for _, field := range fields {
		fmt.Fprintf(b, "- %q: %s\n", field, descriptions[field])
	}
}

func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}

	return strings.TrimSpace(string(runes[:maxRunes])) + truncationMarker
}
