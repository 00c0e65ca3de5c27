package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// mockTemplateRepo implements TemplateRepository for testing.
type mockTemplateRepo struct {
	listCategoriesFn func(ctx context.Context) ([]Category, error)
	listFn           func(ctx context.Context, categoryID string) ([]Summary, error)
	findByIDFn       func(ctx context.Context, id string) (*Template, error)
	createFn         func(ctx context.Context, t *Template) error
	updateFn         func(ctx context.Context, t *Template) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockTemplateRepo) ListCategories(ctx context.Context) ([]Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockTemplateRepo) List(ctx context.Context, categoryID string) ([]Summary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, categoryID)
	}
	return nil, nil
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, id string) (*Template, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("template not found")
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *Template) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, t *Template) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, t)
	}
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func registryFixture() *mockTemplateRepo {
	summaries := []Summary{
		{ID: "t-rent", Name: "Rent Agreement", Keywords: []string{"rent", "rental", "lease"}},
		{ID: "t-affidavit", Name: "Affidavit", Keywords: []string{"affidavit", "sworn statement"}},
		{ID: "t-noc", Name: "No Objection Certificate", Keywords: []string{"noc", "no objection"}},
	}
	byID := map[string]*Template{
		"t-rent":      {ID: "t-rent", Name: "Rent Agreement"},
		"t-affidavit": {ID: "t-affidavit", Name: "Affidavit"},
		"t-noc":       {ID: "t-noc", Name: "No Objection Certificate"},
	}
	return &mockTemplateRepo{
		listFn: func(ctx context.Context, categoryID string) ([]Summary, error) {
			return summaries, nil
		},
		findByIDFn: func(ctx context.Context, id string) (*Template, error) {
			if t, ok := byID[id]; ok {
				return t, nil
			}
			return nil, apperror.NewNotFound("template not found")
		},
	}
}

func TestMatchQuery_KeywordHit(t *testing.T) {
	svc := NewService(registryFixture())
	got, err := svc.MatchQuery(context.Background(), "I need a rental agreement for my shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "t-rent" {
		t.Fatalf("expected t-rent, got %+v", got)
	}
}

func TestMatchQuery_NameHit(t *testing.T) {
	svc := NewService(registryFixture())
	got, err := svc.MatchQuery(context.Background(), "please prepare a no objection certificate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "t-noc" {
		t.Fatalf("expected t-noc, got %+v", got)
	}
}

func TestMatchQuery_NoMatch(t *testing.T) {
	svc := NewService(registryFixture())
	got, err := svc.MatchQuery(context.Background(), "how do I file GST returns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no match, got %s", got.ID)
	}
}

func TestMatchQuery_LongerKeywordWins(t *testing.T) {
	repo := registryFixture()
	svc := NewService(repo)
	// "sworn statement" (affidavit) is longer than "rent".
	got, err := svc.MatchQuery(context.Background(), "draft a sworn statement about my rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "t-affidavit" {
		t.Fatalf("expected t-affidavit, got %+v", got)
	}
}

func TestCreate_Valid(t *testing.T) {
	var stored *Template
	repo := &mockTemplateRepo{
		createFn: func(ctx context.Context, tpl *Template) error {
			stored = tpl
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*Template, error) {
			return stored, nil
		},
	}

	svc := NewService(repo)
	got, err := svc.Create(context.Background(), SaveRequest{
		Name:       "Rent Agreement",
		CategoryID: "cat-1",
		HTML:       "<p>Between [landlord] and [tenant]</p><!-- START witnesses --><p>[witness_name]</p><!-- END witnesses -->",
		Fields: []Field{
			{ID: "landlord", Label: "Landlord", Type: FieldText, Required: true, Description: "Full legal name of the landlord"},
			{ID: "tenant", Label: "Tenant", Type: FieldText, Required: true},
			{ID: "witnesses", Label: "Witnesses", Type: FieldText, IsRepeatable: true, RepeatableGroup: "step2"},
		},
		Keywords: []string{"rent"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated template id")
	}
	if stored == nil || stored.Name != "Rent Agreement" {
		t.Fatalf("expected stored template, got %+v", stored)
	}
	if stored.Fields[0].Description != "Full legal name of the landlord" {
		t.Errorf("expected field description stored, got %q", stored.Fields[0].Description)
	}
	if !stored.Fields[2].IsRepeatable || stored.Fields[2].RepeatableGroup != "step2" {
		t.Errorf("expected repeatable field stored intact, got %+v", stored.Fields[2])
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := NewService(&mockTemplateRepo{})

	tests := []struct {
		name string
		req  SaveRequest
	}{
		{"missing name", SaveRequest{CategoryID: "c", HTML: "<p>x</p>"}},
		{"missing html", SaveRequest{Name: "T", CategoryID: "c"}},
		{"missing category", SaveRequest{Name: "T", HTML: "<p>x</p>"}},
		{"empty field id", SaveRequest{Name: "T", CategoryID: "c", HTML: "<p>x</p>",
			Fields: []Field{{ID: "", Type: FieldText}}}},
		{"duplicate field id", SaveRequest{Name: "T", CategoryID: "c", HTML: "<p>x</p>",
			Fields: []Field{{ID: "a", Type: FieldText}, {ID: "a", Type: FieldText}}}},
		{"bad field type", SaveRequest{Name: "T", CategoryID: "c", HTML: "<p>x</p>",
			Fields: []Field{{ID: "a", Type: "checkbox"}}}},
		{"select without options", SaveRequest{Name: "T", CategoryID: "c", HTML: "<p>x</p>",
			Fields: []Field{{ID: "a", Type: FieldSelect}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Code != 422 {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(appErr.Fields) == 0 {
				t.Error("expected per-field messages")
			}
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockTemplateRepo{
		updateFn: func(ctx context.Context, tpl *Template) error {
			return apperror.NewNotFound("template not found")
		},
	}
	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "missing", SaveRequest{
		Name: "T", CategoryID: "c", HTML: "<p>x</p>",
	})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}
