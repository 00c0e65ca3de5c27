// Package pdf converts rendered document HTML into paginated PDF files using
// a headless Chromium driven by go-rod. Content flows across as many A4
// pages as it needs; nothing is scaled down to force a single page.
package pdf

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/finaccosolutions/portal/internal/config"
)

// A4 paper size in inches, 15mm margins to match the in-app preview.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
	marginIn      = 0.59
)

// Exporter renders HTML to PDF. The underlying browser is launched lazily on
// first use and shared across exports; pages are per-export.
type Exporter struct {
	cfg config.PDFConfig

	mu      sync.Mutex
	browser *rod.Browser
}

// NewExporter creates a PDF exporter. No browser is launched until the first
// Export call.
func NewExporter(cfg config.PDFConfig) *Exporter {
	return &Exporter{cfg: cfg}
}

// Export renders the given HTML into a paginated A4 PDF and returns the
// file bytes. The HTML is loaded into a fresh page so concurrent exports
// don't interfere.
func (e *Exporter) Export(ctx context.Context, html string) ([]byte, error) {
	browser, err := e.getBrowser()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for document: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		Scale:           ptr(1.0),
		PaperWidth:      ptr(paperWidthIn),
		PaperHeight:     ptr(paperHeightIn),
		MarginTop:       ptr(marginIn),
		MarginBottom:    ptr(marginIn),
		MarginLeft:      ptr(marginIn),
		MarginRight:     ptr(marginIn),
	})
	if err != nil {
		return nil, fmt.Errorf("printing to pdf: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("reading pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts down the shared browser, if one was launched.
func (e *Exporter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		_ = e.browser.Close()
		e.browser = nil
	}
}

// getBrowser returns the shared browser, launching it on first call.
func (e *Exporter) getBrowser() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		return e.browser, nil
	}

	launch := launcher.New().Headless(true)
	if e.cfg.ChromeBin != "" {
		launch = launch.Bin(e.cfg.ChromeBin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	e.browser = browser
	return browser, nil
}

func ptr(v float64) *float64 { return &v }

// whitespaceRe collapses runs of whitespace for filename derivation.
var whitespaceRe = regexp.MustCompile(`\s+`)

// Filename derives a download filename from a document or template name:
// whitespace becomes underscores and a .pdf extension is appended.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document"
	}
	return whitespaceRe.ReplaceAllString(name, "_") + ".pdf"
}
