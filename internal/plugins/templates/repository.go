package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// TemplateRepository defines data access for templates and categories. The
// fields and keywords columns hold JSON; a row with malformed JSON is a data
// corruption error, not a soft miss.
type TemplateRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	List(ctx context.Context, categoryID string) ([]Summary, error)
	FindByID(ctx context.Context, id string) (*Template, error)
	Create(ctx context.Context, t *Template) error
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
}

// templateRepository implements TemplateRepository using MariaDB.
type templateRepository struct {
	db *sql.DB
}

// NewRepository creates a new template repository.
func NewRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, description, created_at
		FROM document_categories
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *templateRepository) List(ctx context.Context, categoryID string) ([]Summary, error) {
	query := `
		SELECT id, name, description, category_id, keywords, created_at
		FROM document_templates`
	args := []any{}
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var keywordsJSON []byte
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CategoryID, &keywordsJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		if err := json.Unmarshal(keywordsJSON, &s.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords for template %s: %w", s.ID, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *templateRepository) FindByID(ctx context.Context, id string) (*Template, error) {
	query := `
		SELECT id, name, description, category_id, template_html, fields, keywords, created_at, updated_at
		FROM document_templates
		WHERE id = ?`

	var t Template
	var fieldsJSON, keywordsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.CategoryID, &t.HTML,
		&fieldsJSON, &keywordsJSON, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &t.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields for template %s: %w", t.ID, err)
	}
	if err := json.Unmarshal(keywordsJSON, &t.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords for template %s: %w", t.ID, err)
	}
	return &t, nil
}

func (r *templateRepository) Create(ctx context.Context, t *Template) error {
	fieldsJSON, keywordsJSON, err := encodeJSONColumns(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO document_templates (id, name, description, category_id, template_html, fields, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, t.CategoryID, t.HTML, fieldsJSON, keywordsJSON); err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

func (r *templateRepository) Update(ctx context.Context, t *Template) error {
	fieldsJSON, keywordsJSON, err := encodeJSONColumns(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE document_templates
		SET name = ?, description = ?, category_id = ?, template_html = ?, fields = ?, keywords = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.CategoryID, t.HTML, fieldsJSON, keywordsJSON, t.ID)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("template not found")
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM document_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("template not found")
	}
	return nil
}

func encodeJSONColumns(t *Template) (fields, keywords []byte, err error) {
	if t.Fields == nil {
		t.Fields = []Field{}
	}
	if t.Keywords == nil {
		t.Keywords = []string{}
	}
	fields, err = json.Marshal(t.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding fields: %w", err)
	}
	keywords, err = json.Marshal(t.Keywords)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding keywords: %w", err)
	}
	return fields, keywords, nil
}
