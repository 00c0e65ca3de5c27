// Package documents drives document creation: a multi-step form over a
// template's field definitions, placeholder rendering into final HTML, and
// PDF export.
package documents

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/finaccosolutions/portal/internal/plugins/templates"
	"github.com/finaccosolutions/portal/internal/sanitize"
)

// currentDatePlaceholder is always available, independent of the template's
// field list.
const currentDatePlaceholder = "current_date"

// Render substitutes form data into a template's HTML at the given time.
// Each repeatable field's block, delimited by START/END marker comments
// named after the field's ID, is expanded once per instance in order; every
// [id] placeholder is then replaced by its escaped value, empty when unset.
// Rendering never fails: unknown placeholders and missing marker blocks are
// simply left alone or skipped.
func Render(tpl *templates.Template, values map[string]string, instances map[string][]map[string]string, now time.Time) string {
	html := tpl.HTML

	for _, f := range tpl.Fields {
		if f.IsRepeatable {
			html = expandBlock(html, f.ID, instances[f.ID])
		}
	}

	// Placeholders for every declared scalar field, missing ones included.
	for _, f := range tpl.Fields {
		if f.IsRepeatable {
			continue
		}
		html = strings.ReplaceAll(html, placeholder(f.ID), sanitize.Text(values[f.ID]))
	}

	// The current date renders as DD/MM/YYYY regardless of locale.
	date := fmt.Sprintf("%02d/%02d/%04d", now.Day(), int(now.Month()), now.Year())
	html = strings.ReplaceAll(html, placeholder(currentDatePlaceholder), date)

	return html
}

// expandBlock replaces the marker-delimited block for a repeatable field
// with one copy per instance, substituting each instance's own keyed values,
// escaped. A template without markers for the field is left untouched.
func expandBlock(html, fieldID string, fieldInstances []map[string]string) string {
	re, err := blockPattern(fieldID)
	if err != nil {
		return html
	}

	return re.ReplaceAllStringFunc(html, func(block string) string {
		inner := re.FindStringSubmatch(block)[1]

		var b strings.Builder
		for _, instance := range fieldInstances {
			copyHTML := inner
			for _, key := range instanceKeys(instance) {
				copyHTML = strings.ReplaceAll(copyHTML, placeholder(key), sanitize.Text(instance[key]))
			}
			b.WriteString(copyHTML)
		}
		return b.String()
	})
}

// instanceKeys returns the instance's keys sorted for deterministic
// substitution.
func instanceKeys(instance map[string]string) []string {
	keys := make([]string, 0, len(instance))
	for k := range instance {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// blockPattern matches "<!-- START id --> ... <!-- END id -->", including
// the markers, with the inner content captured.
func blockPattern(fieldID string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(fieldID)
	return regexp.Compile(`(?s)<!--\s*START\s+` + quoted + `\s*-->(.*?)<!--\s*END\s+` + quoted + `\s*-->`)
}

func placeholder(id string) string {
	return "[" + id + "]"
}
