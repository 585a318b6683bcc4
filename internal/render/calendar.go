package render

import (
	"net/url"
	"strings"

	"articlesum/internal/domain"
)

const calendarBaseURL = "https://calendar.google.com/calendar/render"

var calendarDateReplacer = strings.NewReplacer("-", "", ":", "", "Z", "")

// FormatCalendarDate converts an ISO 8601 timestamp to the basic format the
// calendar template expects, e.g. 2024-03-01T10:00:00Z becomes
// 20240301T100000.
func FormatCalendarDate(value string) string {
	return calendarDateReplacer.Replace(strings.TrimSpace(value))
}

// CalendarURL builds the calendar provider's event template link. Query
// parameters keep the provider's documented order.
func CalendarURL(event domain.CalendarEvent) string {
	params := []struct {
		key   string
		value string
	}{
		{key: "action", value: "TEMPLATE"},
		{key: "text", value: url.QueryEscape(strings.TrimSpace(event.Title))},
		{key: "dates", value: url.QueryEscape(FormatCalendarDate(event.Start)) + "/" +
			url.QueryEscape(FormatCalendarDate(event.End))},
		{key: "location", value: url.QueryEscape(strings.TrimSpace(event.Location))},
		{key: "details", value: url.QueryEscape(strings.TrimSpace(event.Details))},
	}

	var b strings.Builder
	b.WriteString(calendarBaseURL)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

// CalendarRedirect returns the action that sends the client to the event
// template.
func CalendarRedirect(event domain.CalendarEvent) Redirect {
	return Redirect{URL: CalendarURL(event)}
}
