package templates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// TemplateService defines the business logic contract for the registry.
type TemplateService interface {
	ListCategories(ctx context.Context) ([]Category, error)
	List(ctx context.Context, categoryID string) ([]Summary, error)
	Get(ctx context.Context, id string) (*Template, error)

	// MatchQuery finds the template best matching a free-text request, or
	// nil when nothing matches. Used by the assistant's document flow.
	MatchQuery(ctx context.Context, query string) (*Template, error)

	// Admin operations.
	Create(ctx context.Context, req SaveRequest) (*Template, error)
	Update(ctx context.Context, id string, req SaveRequest) (*Template, error)
	Delete(ctx context.Context, id string) error
}

var validFieldTypes = map[string]bool{
	FieldText:     true,
	FieldTextarea: true,
	FieldDate:     true,
	FieldNumber:   true,
	FieldEmail:    true,
	FieldTel:      true,
	FieldSelect:   true,
}

// templateService implements TemplateService.
type templateService struct {
	repo TemplateRepository
}

// NewService creates a new template service.
func NewService(repo TemplateRepository) TemplateService {
	return &templateService{repo: repo}
}

func (s *templateService) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing categories: %w", err))
	}
	return categories, nil
}

func (s *templateService) List(ctx context.Context, categoryID string) ([]Summary, error) {
	summaries, err := s.repo.List(ctx, categoryID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing templates: %w", err))
	}
	return summaries, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*Template, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading template: %w", err))
	}
	return t, nil
}

// MatchQuery scores templates against the request text. A keyword hit beats
// a name hit; among equal kinds the longer match wins so "rent agreement"
// outranks "agreement".
func (s *templateService) MatchQuery(ctx context.Context, query string) (*Template, error) {
	summaries, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing templates: %w", err))
	}

	q := strings.ToLower(query)
	bestID := ""
	bestScore := 0
	for _, t := range summaries {
		score := 0
		for _, kw := range t.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(q, kw) && len(kw)+100 > score {
				score = len(kw) + 100
			}
		}
		name := strings.ToLower(t.Name)
		if strings.Contains(q, name) && len(name) > score {
			score = len(name)
		}
		if score > bestScore {
			bestScore = score
			bestID = t.ID
		}
	}

	if bestID == "" {
		return nil, nil
	}
	return s.Get(ctx, bestID)
}

func (s *templateService) Create(ctx context.Context, req SaveRequest) (*Template, error) {
	t, err := buildTemplate(uuid.NewString(), req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating template: %w", err))
	}

	slog.Info("template created",
		slog.String("template_id", t.ID),
		slog.String("name", t.Name),
	)
	return s.Get(ctx, t.ID)
}

func (s *templateService) Update(ctx context.Context, id string, req SaveRequest) (*Template, error) {
	t, err := buildTemplate(id, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating template: %w", err))
	}
	return s.Get(ctx, id)
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting template: %w", err))
	}
	slog.Info("template deleted", slog.String("template_id", id))
	return nil
}

// buildTemplate validates a save request and assembles the template.
func buildTemplate(id string, req SaveRequest) (*Template, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(req.HTML) == "" {
		fields["template_html"] = "template body is required"
	}
	if req.CategoryID == "" {
		fields["category_id"] = "category is required"
	}

	seen := map[string]bool{}
	for i, f := range req.Fields {
		key := fmt.Sprintf("fields_%d", i)
		switch {
		case strings.TrimSpace(f.ID) == "":
			fields[key] = "field id is required"
		case seen[f.ID]:
			fields[key] = fmt.Sprintf("duplicate field id %q", f.ID)
		case !validFieldTypes[f.Type]:
			fields[key] = fmt.Sprintf("unknown field type %q", f.Type)
		case f.Type == FieldSelect && len(f.Options) == 0:
			fields[key] = "select fields need at least one option"
		}
		seen[f.ID] = true
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation("please correct the highlighted fields", fields)
	}

	return &Template{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CategoryID:  req.CategoryID,
		HTML:        req.HTML,
		Fields:      req.Fields,
		Keywords:    req.Keywords,
	}, nil
}
