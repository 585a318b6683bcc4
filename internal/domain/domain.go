package domain

import "fmt"

type ParsedDocument struct {
	SourceURL   string
	Title       string
	Description string
	PlainText   string
}

type Task int

const (
	TaskSummarize Task = iota + 1
	TaskCalendarize
)

func (t Task) String() string {
	switch t {
	case TaskSummarize:
		return "summarize"
	case TaskCalendarize:
		return "calendarize"
	default:
		return fmt.Sprintf("task(%d)", int(t))
	}
}

// Fields lists the JSON keys the model must return for the task.
func (t Task) Fields() []string {
	switch t {
	case TaskSummarize:
		return []string{"title", "summary"}
	case TaskCalendarize:
		return []string{"title", "start", "end", "location", "details"}
	default:
		return nil
	}
}

type Summary struct {
	Title   string
	Summary string
}

type CalendarEvent struct {
	Title    string
	Start    string
	End      string
	Location string
	Details  string
}

func SummaryFromFields(fields map[string]string) Summary {
	return Summary{
		Title:   fields["title"],
		Summary: fields["summary"],
	}
}

func CalendarEventFromFields(fields map[string]string) CalendarEvent {
	return CalendarEvent{
		Title:    fields["title"],
		Start:    fields["start"],
		End:      fields["end"],
		Location: fields["location"],
		Details:  fields["details"],
	}
}

// Request is the input of a task pipeline.
type Request struct {
	// URL is the article address taken from the url query parameter.
	URL string
	// RawHTML optionally carries the article markup so it is not fetched.
	RawHTML string
}
