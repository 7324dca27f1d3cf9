package classifier_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"docmonitor/internal/classifier"
)

func TestParseResponseStripsFencesAndProse(t *testing.T) {
	text := "```json\n{\"documentClassId\":\"Invoice\",\"confidence\":0.9}\n```"
	res, err := classifier.ParseResponse(text, "a.pdf")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if res.ClassID() != "Invoice" || res.Confidence() != 0.9 {
		t.Fatalf("unexpected result: %+v", res.Payload)
	}

	res, err = classifier.ParseResponse("Here you go: {\"type\":\"Order\"} hope it helps", "b.pdf")
	if err != nil {
		t.Fatalf("ParseResponse with prose: %v", err)
	}
	if res.ClassID() != "Order" {
		t.Fatalf("expected class from type, got %q", res.ClassID())
	}
}

func TestParseResponseAppliesDefaults(t *testing.T) {
	res, err := classifier.ParseResponse(`{"title":" Legacy title ","content_properties":"oops"}`, "scan.pdf")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	want := map[string]any{
		"title":              " Legacy title ",
		"content_properties": map[string]any{"title": "Legacy title"},
		"typed_properties":   map[string]any{},
		"sourceFile":         "scan.pdf",
		"confidence":         0.0,
		"documentClassId":    "Unclassified",
	}
	if diff := cmp.Diff(want, res.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResponseKeepsExplicitValues(t *testing.T) {
	res, err := classifier.ParseResponse(`{"documentClassId":"Notice","type":"Order","sourceFile":"x","confidence":0.5,"content_properties":{"title":"Kept"},"title":"Ignored"}`, "scan.pdf")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if res.ClassID() != "Notice" || res.Payload["sourceFile"] != "x" {
		t.Fatalf("unexpected payload: %+v", res.Payload)
	}
	if res.Section("content_properties")["title"] != "Kept" {
		t.Fatalf("expected content title kept, got %v", res.Section("content_properties"))
	}
}

func TestParseResponseKeepsNumbersExact(t *testing.T) {
	res, err := classifier.ParseResponse(`{"confidence":0.75,"fax_properties":{"senderFaxNumber":312345678,"recipientFaxNumber":9007199254740993}}`, "fax.pdf")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if res.Confidence() != 0.75 {
		t.Fatalf("expected confidence 0.75, got %v", res.Confidence())
	}
	fax := res.Section("fax_properties")
	if got := classifier.Text(fax["senderFaxNumber"]); got != "312345678" {
		t.Fatalf("expected plain sender number, got %q", got)
	}
	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(data), `"recipientFaxNumber":9007199254740993`) {
		t.Fatalf("expected exact recipient number, got %s", data)
	}
}

func TestParseResponseErrors(t *testing.T) {
	if _, err := classifier.ParseResponse("   ", "a.pdf"); !errors.Is(err, classifier.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if _, err := classifier.ParseResponse("no json here", "a.pdf"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := classifier.ParseResponse("[1,2]", "a.pdf"); err == nil {
		t.Fatal("expected error for non-object response")
	}
}

func TestDetectMIMEType(t *testing.T) {
	cases := map[string]string{
		"/in/a.PDF":  "application/pdf",
		"/in/b.tiff": "image/tiff",
		"/in/c.tif":  "image/tiff",
		"/in/d.zzz":  "application/octet-stream",
	}
	for path, want := range cases {
		if got := classifier.DetectMIMEType(path); got != want {
			t.Errorf("DetectMIMEType(%q) = %q, want %q", path, got, want)
		}
	}
}
