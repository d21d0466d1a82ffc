package extraction

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = "You extract calendar events from user content. You answer with a single JSON object and nothing else."

const eventShape = `{
  "title": "short event name",
  "description": "one or two sentences, at most 25 words",
  "date": "YYYY-MM-DD",
  "time": "HH:MM in 24-hour format, omit if no start time is given",
  "endTime": "HH:MM in 24-hour format, omit if no end time is given",
  "location": "venue name and/or address, omit if none"
}`

const frameShape = `{
  "title": "event name or null",
  "description": "short description or null",
  "date": "YYYY-MM-DD or null",
  "time": "HH:MM (24-hour) or null",
  "endTime": "HH:MM (24-hour) or null",
  "location": "venue or address or null",
  "text": "all text visible in the frame, verbatim",
  "hasEventInfo": true
}`

func todayLine(now time.Time) string {
	return fmt.Sprintf("Today is %s (%s). Resolve relative dates such as \"tomorrow\" or \"next Friday\" against today.",
		now.Format(dateLayout), now.Weekday())
}

func imagePrompt(now time.Time, ocrHint string) string {
	var b strings.Builder
	b.WriteString("Extract the event shown in this image (a flyer, poster, screenshot or invitation).\n")
	b.WriteString(todayLine(now))
	b.WriteString("\nIf the year is missing, pick the next occurrence on or after today.\n")
	if hint := strings.TrimSpace(ocrHint); hint != "" {
		b.WriteString("\nText detected on the image by OCR (may contain errors):\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY JSON with this shape:\n")
	b.WriteString(eventShape)
	return b.String()
}

func textPrompt(now time.Time, text string) string {
	var b strings.Builder
	b.WriteString("Extract the event described in the content below.\n")
	b.WriteString(todayLine(now))
	b.WriteString("\nIf the year is missing, pick the next occurrence on or after today.\n\n")
	b.WriteString("CONTENT:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY JSON with this shape:\n")
	b.WriteString(eventShape)
	return b.String()
}

func framePrompt(now time.Time, index, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is frame %d of %d sampled from a short video that may announce an event.\n", index+1, total)
	b.WriteString(todayLine(now))
	b.WriteString("\nReport only what is visible in this frame. Use null for anything not shown.\n")
	b.WriteString("Set hasEventInfo to false when the frame carries no event details at all.\n\n")
	b.WriteString("Return ONLY JSON with this shape:\n")
	b.WriteString(frameShape)
	return b.String()
}
