package assistant

import (
	"strings"
	"testing"
)

func TestFormatAnswer_Headings(t *testing.T) {
	got := formatAnswer("**GST Registration**\n\nEvery business above the threshold must register.")
	if !strings.Contains(got, `<h3 class="answer-heading">GST Registration</h3>`) {
		t.Errorf("expected bold text as heading, got %q", got)
	}
	if !strings.Contains(got, `<div class="answer-block">`) {
		t.Errorf("expected paragraph blocks, got %q", got)
	}
}

func TestFormatAnswer_SectionLabels(t *testing.T) {
	got := formatAnswer("Overview: the basics\nNote: consult a professional")
	if !strings.Contains(got, `<h3 class="answer-heading">Overview</h3>`) {
		t.Errorf("expected section heading, got %q", got)
	}
	if !strings.Contains(got, `<div class="answer-note"><h4>Note:</h4>`) {
		t.Errorf("expected callout note, got %q", got)
	}
}

func TestFormatAnswer_Lists(t *testing.T) {
	got := formatAnswer("Documents needed:\n* PAN card\n* Aadhaar card\n- Bank statement\nDone.")
	if !strings.Contains(got, `<ul class="answer-list">`) {
		t.Fatalf("expected list wrapper, got %q", got)
	}
	for _, item := range []string{"<li>PAN card</li>", "<li>Aadhaar card</li>", "<li>Bank statement</li>"} {
		if !strings.Contains(got, item) {
			t.Errorf("expected %q in output, got %q", item, got)
		}
	}
	if strings.Count(got, "<ul") != 1 {
		t.Errorf("adjacent bullets should share one list, got %q", got)
	}
}

func TestFormatAnswer_Tables(t *testing.T) {
	table := "| Slab | Rate |\n| --- | --- |\n| Up to 3L | Nil |\n| 3L-6L | 5% |"
	got := formatAnswer(table)
	if !strings.Contains(got, `<div class="answer-table"><table>`) {
		t.Fatalf("expected table wrapper, got %q", got)
	}
	if !strings.Contains(got, "<th>Slab</th><th>Rate</th>") {
		t.Errorf("expected header cells, got %q", got)
	}
	if !strings.Contains(got, "<td>Up to 3L</td><td>Nil</td>") {
		t.Errorf("expected body cells, got %q", got)
	}
	if strings.Contains(got, "---") {
		t.Errorf("separator row should be dropped, got %q", got)
	}
}

func TestFormatAnswer_CodeBlocks(t *testing.T) {
	got := formatAnswer("Use this entry:\n```Dr Rent 10,000\nCr Bank 10,000```")
	if !strings.Contains(got, `<pre class="answer-code"><code>`) {
		t.Errorf("expected code block, got %q", got)
	}
}

func TestFormatAnswer_StraysAndItalics(t *testing.T) {
	got := formatAnswer("This is *important* and * here is a stray star")
	if !strings.Contains(got, "<em>important</em>") {
		t.Errorf("expected italics, got %q", got)
	}
	if strings.Contains(got, " * ") {
		t.Errorf("expected stray asterisk removed, got %q", got)
	}
}

func TestFormatAnswer_PlainTextPassesThrough(t *testing.T) {
	got := formatAnswer("Just a plain sentence.")
	if !strings.Contains(got, "Just a plain sentence.") {
		t.Errorf("plain text must survive, got %q", got)
	}
}
