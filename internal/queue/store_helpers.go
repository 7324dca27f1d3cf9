package queue

import (
	"strings"
	"time"
)

// timeLayout is fixed-width UTC so stored timestamps compare correctly as
// strings.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const entryColumns = "EntryID, Retry, LastFailure, SourcePath"

const documentColumns = "ID, Active, SourcePath, DateCreated, DateReceived, Title, Sender, SenderOrganization, Recipient, RecipientOrganization, DocumentClassID, DocumentData"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
