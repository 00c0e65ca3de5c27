package assistant

import (
	"fmt"
	"regexp"
	"strings"
)

// formatAnswer turns the LLM's markdown-ish answer into the HTML the chat UI
// renders. It is intentionally forgiving: whatever it cannot recognize stays
// as plain text inside a paragraph block.
func formatAnswer(text string) string {
	text = boldRe.ReplaceAllString(text, `<h3 class="answer-heading">$1</h3>`)
	text = italicRe.ReplaceAllString(text, `$1<em>$2</em>`)
	text = calloutRe.ReplaceAllString(text,
		`<div class="answer-note"><h4>$1:</h4>`)
	text = sectionRe.ReplaceAllString(text, `<h3 class="answer-heading">$1</h3>`)

	text = formatLists(text)
	text = formatTables(text)

	text = codeRe.ReplaceAllString(text,
		`<pre class="answer-code"><code>$1</code></pre>`)

	text = strings.ReplaceAll(text, "\n\n", "</div>\n\n<div class=\"answer-block\">")
	text = `<div class="answer-block">` + text + `</div>`

	// Strip stray lone asterisks left over from sloppy markdown.
	text = strayStarRe.ReplaceAllString(text, "$1")

	return text
}

var (
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe    = regexp.MustCompile(`(^|\s)\*(\S[^*]*\S)\*`)
	calloutRe   = regexp.MustCompile(`(Important Points|Key Points|Note):`)
	sectionRe   = regexp.MustCompile(`(?m)^(Overview|Summary|Details|References):`)
	bulletRe    = regexp.MustCompile(`^[*\-•●○]\s+`)
	anyBulletRe = regexp.MustCompile(`(?m)^\s*[*\-•●○]\s+`)
	codeRe      = regexp.MustCompile("```([^`]+)```")
	strayStarRe = regexp.MustCompile(`(^|\s)\*(\s|$)`)
)

// formatLists wraps runs of bullet lines in <ul>.
func formatLists(text string) string {
	if !anyBulletRe.MatchString(text) {
		return text
	}

	var b strings.Builder
	insideList := false
	for _, line := range strings.Split(text, "\n") {
		if bulletRe.MatchString(strings.TrimLeft(line, " ")) {
			if !insideList {
				insideList = true
				b.WriteString("\n<ul class=\"answer-list\">\n")
			}
			item := bulletRe.ReplaceAllString(strings.TrimLeft(line, " "), "")
			fmt.Fprintf(&b, "<li>%s</li>\n", item)
			continue
		}
		if insideList {
			insideList = false
			b.WriteString("</ul>\n")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if insideList {
		b.WriteString("</ul>\n")
	}
	return b.String()
}

// formatTables converts pipe-delimited markdown tables, block by block. A
// block needs a header row and a separator row to qualify.
func formatTables(text string) string {
	if !strings.Contains(text, "|") {
		return text
	}

	blocks := strings.Split(text, "\n\n")
	for i, block := range blocks {
		if !strings.Contains(block, "|") {
			continue
		}
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		headers := splitRow(lines[0])
		if len(headers) == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString(`<div class="answer-table"><table><thead><tr>`)
		for _, h := range headers {
			fmt.Fprintf(&b, "<th>%s</th>", h)
		}
		b.WriteString("</tr></thead><tbody>")
		for _, line := range lines[2:] {
			cells := splitRow(line)
			if len(cells) == 0 {
				continue
			}
			b.WriteString("<tr>")
			for _, cell := range cells {
				fmt.Fprintf(&b, "<td>%s</td>", cell)
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table></div>")
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n\n")
}

func splitRow(line string) []string {
	var cells []string
	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}
