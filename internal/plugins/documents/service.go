package documents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/pdf"
	"github.com/finaccosolutions/portal/internal/plugins/templates"
	"github.com/finaccosolutions/portal/internal/sanitize"
)

// PDFExporter is the slice of the PDF layer this plugin needs.
type PDFExporter interface {
	Export(ctx context.Context, html string) ([]byte, error)
}

// FormView is what the client sees after any form operation: the state plus
// the scaffolding to render the current step.
type FormView struct {
	State      *FormState        `json:"state"`
	TotalSteps int               `json:"total_steps"`
	Fields     []templates.Field `json:"fields"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// UpdateFormRequest merges scalar values and, when present, replaces a
// repeatable field's instances wholesale. The client owns instance layout;
// the server validates.
type UpdateFormRequest struct {
	Values    map[string]string              `json:"values"`
	Instances map[string][]map[string]string `json:"instances"`
}

// DocumentService drives the create-document flow end to end.
type DocumentService interface {
	StartForm(ctx context.Context, userID, templateID string) (*FormView, error)
	GetForm(ctx context.Context, userID, templateID string) (*FormView, error)
	UpdateForm(ctx context.Context, userID, templateID string, req UpdateFormRequest) (*FormView, error)
	NextStep(ctx context.Context, userID, templateID string) (*FormView, error)
	PreviousStep(ctx context.Context, userID, templateID string) (*FormView, error)
	AddGroupInstance(ctx context.Context, userID, templateID, fieldID string) (*FormView, error)
	RemoveGroupInstance(ctx context.Context, userID, templateID, fieldID string, index int) (*FormView, error)

	// Preview renders the document with whatever data is present.
	Preview(ctx context.Context, userID, templateID string) (string, error)

	// Export validates the whole form, renders it, and produces a PDF.
	Export(ctx context.Context, userID, templateID string) (filename string, data []byte, err error)
}

// documentService implements DocumentService.
type documentService struct {
	tpls     templates.TemplateService
	store    FormStore
	exporter PDFExporter
}

// NewService creates a new document service.
func NewService(tpls templates.TemplateService, store FormStore, exporter PDFExporter) DocumentService {
	return &documentService{tpls: tpls, store: store, exporter: exporter}
}

func (s *documentService) StartForm(ctx context.Context, userID, templateID string) (*FormView, error) {
	tpl, err := s.tpls.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	state := NewFormState(tpl)
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) GetForm(ctx context.Context, userID, templateID string) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) UpdateForm(ctx context.Context, userID, templateID string, req UpdateFormRequest) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	for id, value := range req.Values {
		state.Values[id] = value
	}
	for fieldID, instances := range req.Instances {
		state.Instances[fieldID] = instances
	}

	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) NextStep(ctx context.Context, userID, templateID string) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	if errs := Next(tpl, state); len(errs) > 0 {
		return view(tpl, state, errs), apperror.NewValidation("please correct the highlighted fields", errs)
	}
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) PreviousStep(ctx context.Context, userID, templateID string) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	Previous(state)
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) AddGroupInstance(ctx context.Context, userID, templateID, fieldID string) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	if !isRepeatableField(tpl, fieldID) {
		return nil, apperror.NewBadRequest("unknown repeatable field")
	}

	AddInstance(state, fieldID)
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) RemoveGroupInstance(ctx context.Context, userID, templateID, fieldID string, index int) (*FormView, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	RemoveInstance(state, fieldID, index)
	if err := s.store.Save(ctx, userID, state); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return view(tpl, state, nil), nil
}

func (s *documentService) Preview(ctx context.Context, userID, templateID string) (string, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return "", err
	}
	return Render(tpl, state.Values, state.Instances, time.Now()), nil
}

func (s *documentService) Export(ctx context.Context, userID, templateID string) (string, []byte, error) {
	tpl, state, err := s.load(ctx, userID, templateID)
	if err != nil {
		return "", nil, err
	}

	// Every step must validate before export.
	allErrs := map[string]string{}
	for step := 0; step < TotalSteps(tpl); step++ {
		for key, msg := range ValidateStep(tpl, state, step) {
			allErrs[key] = msg
		}
	}
	if len(allErrs) > 0 {
		return "", nil, apperror.NewValidation("please complete the form before exporting", allErrs)
	}

	html := documentShell(tpl.Name, Render(tpl, state.Values, state.Instances, time.Now()))
	data, err := s.exporter.Export(ctx, html)
	if err != nil {
		return "", nil, apperror.NewRenderError("failed to generate the PDF", err)
	}

	slog.Info("document exported",
		slog.String("user_id", userID),
		slog.String("template_id", templateID),
		slog.Int("bytes", len(data)),
	)
	return pdf.Filename(tpl.Name), data, nil
}

// load fetches the template and the user's form state, starting a fresh
// state when none is stored yet.
func (s *documentService) load(ctx context.Context, userID, templateID string) (*templates.Template, *FormState, error) {
	tpl, err := s.tpls.Get(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}

	state, err := s.store.Load(ctx, userID, templateID)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}
	if state == nil {
		state = NewFormState(tpl)
	}
	return tpl, state, nil
}

// isRepeatableField reports whether the template declares a repeatable
// field with this ID.
func isRepeatableField(tpl *templates.Template, fieldID string) bool {
	for _, f := range tpl.Fields {
		if f.IsRepeatable && f.ID == fieldID {
			return true
		}
	}
	return false
}

func view(tpl *templates.Template, state *FormState, errs map[string]string) *FormView {
	return &FormView{
		State:      state,
		TotalSteps: TotalSteps(tpl),
		Fields:     FieldsForStep(tpl, state.Step),
		Errors:     errs,
	}
}

// documentShell wraps rendered content in a printable page.
func documentShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: "Times New Roman", serif; font-size: 12pt; line-height: 1.6; color: #111; }
h1, h2, h3 { line-height: 1.3; }
table { border-collapse: collapse; width: 100%%; }
td, th { border: 1px solid #444; padding: 4px 8px; }
</style>
</head>
<body>%s</body>
</html>`, sanitize.Text(title), body)
}
