// Package templates manages the document template registry: reusable HTML
// templates with typed field definitions, grouped into categories and
// matchable by name or keyword for the assistant's document flow.
package templates

import "time"

// Field types accepted in template definitions.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldDate     = "date"
	FieldNumber   = "number"
	FieldEmail    = "email"
	FieldTel      = "tel"
	FieldSelect   = "select"
)

// Field describes one input a template needs. RepeatableGroup places the
// field on a wizard step ("step2" means step two). A field with IsRepeatable
// set is a block field: its ID names the START/END markers in the template
// HTML, and the user can add any number of instances of it.
type Field struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Type            string   `json:"type"`
	Required        bool     `json:"required"`
	Placeholder     string   `json:"placeholder,omitempty"`
	Description     string   `json:"description,omitempty"`
	Options         []string `json:"options,omitempty"`
	IsRepeatable    bool     `json:"isRepeatable,omitempty"`
	RepeatableGroup string   `json:"repeatableGroup,omitempty"`
}

// Category groups templates on the browse page.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Template is a document template: HTML with [field] placeholders plus the
// field definitions that drive the form.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	HTML        string    `json:"template_html"`
	Fields      []Field   `json:"fields"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is the listing shape: everything but the HTML body.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveRequest is the admin payload for creating or updating a template.
type SaveRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	HTML        string   `json:"template_html"`
	Fields      []Field  `json:"fields"`
	Keywords    []string `json:"keywords"`
}
