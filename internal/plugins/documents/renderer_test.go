package documents

import (
	"strings"
	"testing"
	"time"

	"github.com/finaccosolutions/portal/internal/plugins/templates"
)

var renderedAt = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func agreementTemplate() *templates.Template {
	return &templates.Template{
		ID:   "t-agreement",
		Name: "Agreement",
		HTML: "<p>Agreement between [party_a] and [party_b] on [date].</p>",
		Fields: []templates.Field{
			{ID: "party_a", Label: "First Party", Type: templates.FieldText, Required: true},
			{ID: "party_b", Label: "Second Party", Type: templates.FieldText, Required: true},
			{ID: "date", Label: "Date", Type: templates.FieldText},
		},
	}
}

func witnessTemplate() *templates.Template {
	return &templates.Template{
		ID:   "t-witness",
		Name: "Agreement with Witnesses",
		HTML: "<p>Agreed by [party_a].</p>\n<!-- START witnesses --><p>Witness: [witness_name]</p><!-- END witnesses -->",
		Fields: []templates.Field{
			{ID: "party_a", Label: "Party", Type: templates.FieldText, Required: true},
			{ID: "witnesses", Label: "Witnesses", Type: templates.FieldText, Required: true, IsRepeatable: true, RepeatableGroup: "step2"},
		},
	}
}

func TestRender_ScalarSubstitution(t *testing.T) {
	got := Render(agreementTemplate(), map[string]string{
		"party_a": "Alice",
		"party_b": "Bob",
		"date":    "05/03/2024",
	}, nil, renderedAt)

	want := "<p>Agreement between Alice and Bob on 05/03/2024.</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_MissingValueBecomesEmpty(t *testing.T) {
	got := Render(agreementTemplate(), map[string]string{"party_a": "Alice"}, nil, renderedAt)

	want := "<p>Agreement between Alice and  on .</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_ValuesAreEscaped(t *testing.T) {
	got := Render(agreementTemplate(), map[string]string{
		"party_a": `<script>alert("x")</script>`,
		"party_b": "Bob & Co",
	}, nil, renderedAt)

	if strings.Contains(got, "<script>") {
		t.Error("expected markup in values to be escaped")
	}
	if !strings.Contains(got, "Bob &amp; Co") {
		t.Errorf("expected ampersand to be escaped, got %q", got)
	}
}

func TestRender_RepeatableBlock(t *testing.T) {
	got := Render(witnessTemplate(),
		map[string]string{"party_a": "Alice"},
		map[string][]map[string]string{
			"witnesses": {
				{"witness_name": "Carol"},
				{"witness_name": "Dave"},
			},
		}, renderedAt)

	want := "<p>Agreed by Alice.</p>\n<p>Witness: Carol</p><p>Witness: Dave</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_RepeatableBlockKeepsWhitespace(t *testing.T) {
	tpl := &templates.Template{
		HTML: "<!-- START witnesses --> Witness: [name]. <!-- END witnesses -->",
		Fields: []templates.Field{
			{ID: "witnesses", Label: "Witnesses", Type: templates.FieldText, IsRepeatable: true},
		},
	}

	got := Render(tpl, nil, map[string][]map[string]string{
		"witnesses": {
			{"name": "X"},
			{"name": "Y"},
		},
	}, renderedAt)

	want := " Witness: X.  Witness: Y. "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_ZeroInstancesRemovesBlock(t *testing.T) {
	got := Render(witnessTemplate(), map[string]string{"party_a": "Alice"}, nil, renderedAt)

	want := "<p>Agreed by Alice.</p>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_MissingBlockMarkersIgnored(t *testing.T) {
	// The template declares a repeatable field but carries no markers for
	// it; the instances are silently skipped.
	tpl := witnessTemplate()
	tpl.HTML = "<p>Agreed by [party_a].</p>"

	got := Render(tpl,
		map[string]string{"party_a": "Alice"},
		map[string][]map[string]string{
			"witnesses": {{"witness_name": "Carol"}},
		}, renderedAt)

	want := "<p>Agreed by Alice.</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_EmptyInstanceValueBecomesEmpty(t *testing.T) {
	got := Render(witnessTemplate(),
		map[string]string{"party_a": "Alice"},
		map[string][]map[string]string{
			"witnesses": {{"witness_name": ""}},
		}, renderedAt)

	want := "<p>Agreed by Alice.</p>\n<p>Witness: </p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_CurrentDate(t *testing.T) {
	tpl := &templates.Template{
		HTML: "<p>Dated [current_date]</p>",
	}

	got := Render(tpl, nil, nil, renderedAt)

	want := "<p>Dated 05/03/2024</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_UnknownPlaceholderLeftAlone(t *testing.T) {
	tpl := &templates.Template{
		HTML: "<p>[not_a_field]</p>",
		Fields: []templates.Field{
			{ID: "party_a", Type: templates.FieldText},
		},
	}

	got := Render(tpl, map[string]string{"party_a": "Alice"}, nil, renderedAt)
	if got != "<p>[not_a_field]</p>" {
		t.Errorf("expected undeclared placeholder untouched, got %q", got)
	}
}
