package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docmonitor/internal/classifier"
	"docmonitor/internal/notifications"
	"docmonitor/internal/plugins"
	"docmonitor/internal/queue"
)

var receivedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// documentFromResult maps a classifier payload onto the document columns.
// The payload itself is stored verbatim.
func documentFromResult(result *classifier.Result, sourcePath string, now time.Time) (queue.Document, error) {
	data, err := result.JSON()
	if err != nil {
		return queue.Document{}, err
	}

	content := result.Section("content_properties")
	typed := result.Section("typed_properties")
	fax := result.Section("fax_properties")

	classID := result.ClassID()
	if plugins.IsUnclassified(classID) {
		classID = ""
	}

	senderName := firstPresent(fax, content, "senderName")
	senderFax := firstPresent(fax, content, "senderFaxNumber")
	recipientName := firstPresent(fax, content, "recipientName")
	recipientFax := firstPresent(fax, content, "recipientFaxNumber")

	return queue.Document{
		Active:                true,
		SourcePath:            sourcePath,
		DateCreated:           now,
		DateReceived:          receivedAt(fax, content, now),
		Title:                 firstNonEmpty(classifier.Text(content["title"]), classifier.Text(typed["title"]), classifier.Text(result.Payload["title"]), stem(sourcePath)),
		Sender:                firstNonEmpty(senderName, senderFax),
		SenderOrganization:    senderFax,
		Recipient:             firstNonEmpty(recipientName, recipientFax),
		RecipientOrganization: recipientFax,
		ClassID:               classID,
		Data:                  data,
	}, nil
}

// terminalDocument is the record written for a file that exhausted its
// retries. The reception date is the file's mtime while it still exists.
func terminalDocument(sourcePath string, retry int, now time.Time) (queue.Document, error) {
	payload := map[string]any{
		"sourceFile": filepath.Base(sourcePath),
		"status":     notifications.ReasonRetryMaxExceeded,
		"retry":      retry,
		"note":       "classification failed repeatedly",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return queue.Document{}, err
	}
	received := now
	if info, err := os.Stat(sourcePath); err == nil {
		received = info.ModTime()
	}
	return queue.Document{
		Active:       true,
		SourcePath:   sourcePath,
		DateCreated:  now,
		DateReceived: received,
		Title:        stem(sourcePath),
		Data:         data,
	}, nil
}

// firstPresent reads key from primary, falling back to secondary only when
// primary has no value at all.
func firstPresent(primary, secondary map[string]any, key string) string {
	if v, ok := primary[key]; ok && v != nil {
		return classifier.Text(v)
	}
	return classifier.Text(secondary[key])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func receivedAt(fax, content map[string]any, now time.Time) time.Time {
	raw := firstNonEmpty(classifier.Text(fax["transmissionTimestamp"]), classifier.Text(content["timestamp"]))
	if raw == "" {
		return now
	}
	for _, layout := range receivedLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return now
}
