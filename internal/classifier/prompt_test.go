package classifier_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docmonitor/internal/classifier"
	"docmonitor/internal/queue"
)

func TestBuildPromptFormat(t *testing.T) {
	classes := []queue.DocumentClass{
		{ID: "Invoice", Priority: 10, Enabled: true, Prompt: "Bills.\n\n"},
		{ID: "Blank", Priority: 15, Enabled: true, Prompt: "   "},
		{ID: "Order", Priority: 20, Enabled: true, Prompt: "Orders."},
	}
	got := classifier.BuildPrompt("Base prompt.\n\n", classes)
	want := "Base prompt.\n" +
		"\n-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=ypl\n\n### Invoice\n\nDocumentClassID  Invoice\n\nBills.\n" +
		"\n" +
		"\n-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=ypl\n\n### Order\n\nDocumentClassID  Order\n\nOrders.\n"
	if got != want {
		t.Fatalf("unexpected prompt:\n%q\nwant:\n%q", got, want)
	}
}

func TestBuildPromptWithoutClasses(t *testing.T) {
	if got := classifier.BuildPrompt("  Base  \n", nil); got != "Base\n" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestLoadBasePrompt(t *testing.T) {
	def, err := classifier.LoadBasePrompt("")
	if err != nil || def != classifier.DefaultBasePrompt() || !strings.Contains(def, "documentClassId") {
		t.Fatalf("expected default prompt, got err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "prompt.md")
	if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	custom, err := classifier.LoadBasePrompt(path)
	if err != nil || custom != "custom" {
		t.Fatalf("expected custom prompt, got %q (%v)", custom, err)
	}

	if _, err := classifier.LoadBasePrompt(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatal("expected error for missing prompt file")
	}
}
