package documents

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/finaccosolutions/portal/internal/plugins/templates"
)

// FormState is a user's in-progress form for one template. It lives in Redis
// so a half-filled form survives reloads and tab switches.
type FormState struct {
	TemplateID string                         `json:"template_id"`
	Step       int                            `json:"step"`
	Values     map[string]string              `json:"values"`
	Instances  map[string][]map[string]string `json:"instances"`
	UpdatedAt  time.Time                      `json:"updated_at"`
}

// NewFormState returns an empty form at the first step. Every repeatable
// field starts with a single empty instance so the wizard has a row to show.
func NewFormState(tpl *templates.Template) *FormState {
	state := &FormState{
		TemplateID: tpl.ID,
		Step:       0,
		Values:     map[string]string{},
		Instances:  map[string][]map[string]string{},
		UpdatedAt:  time.Now().UTC(),
	}
	for _, f := range tpl.Fields {
		if f.IsRepeatable {
			state.Instances[f.ID] = []map[string]string{{}}
		}
	}
	return state
}

var (
	stepGroupRe = regexp.MustCompile(`^step(\d+)$`)
	telRe       = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// stepOfGroup maps a repeatable group name to its zero-based step index.
// Groups follow the "stepN" convention; anything else shares the first step
// with the scalar fields.
func stepOfGroup(group string) int {
	m := stepGroupRe.FindStringSubmatch(group)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n - 1
}

// TotalSteps reports how many steps a template's form has. Scalar fields
// occupy the first step; repeatable groups claim theirs by name.
func TotalSteps(tpl *templates.Template) int {
	total := 1
	for _, f := range tpl.Fields {
		if f.RepeatableGroup == "" {
			continue
		}
		if n := stepOfGroup(f.RepeatableGroup) + 1; n > total {
			total = n
		}
	}
	return total
}

// FieldsForStep returns the fields shown on a step: scalars on the first
// step, each repeatable group on its own.
func FieldsForStep(tpl *templates.Template, step int) []templates.Field {
	var fields []templates.Field
	for _, f := range tpl.Fields {
		fieldStep := 0
		if f.RepeatableGroup != "" {
			fieldStep = stepOfGroup(f.RepeatableGroup)
		}
		if fieldStep == step {
			fields = append(fields, f)
		}
	}
	return fields
}

// ValidateStep checks one step of the form and returns per-field messages,
// empty when the step is valid. Repeatable-field errors are keyed
// "<fieldID>_<instanceIndex>" so the client can highlight the exact input.
func ValidateStep(tpl *templates.Template, state *FormState, step int) map[string]string {
	errs := map[string]string{}

	for _, f := range FieldsForStep(tpl, step) {
		if !f.IsRepeatable {
			value := strings.TrimSpace(state.Values[f.ID])
			if f.Required && value == "" {
				errs[f.ID] = f.Label + " is required"
				continue
			}
			if value != "" {
				if msg := validateType(f, value); msg != "" {
					errs[f.ID] = msg
				}
			}
			continue
		}

		instances := state.Instances[f.ID]
		if len(instances) == 0 {
			if f.Required {
				errs[f.ID] = "add at least one entry"
			}
			continue
		}
		for idx, instance := range instances {
			value := strings.TrimSpace(instance[f.ID])
			key := fmt.Sprintf("%s_%d", f.ID, idx)
			if f.Required && value == "" {
				errs[key] = f.Label + " is required"
				continue
			}
			if value != "" {
				if msg := validateType(f, value); msg != "" {
					errs[key] = msg
				}
			}
		}
	}

	return errs
}

// validateType enforces the per-type format rules on a non-empty value.
func validateType(f templates.Field, value string) string {
	switch f.Type {
	case templates.FieldEmail:
		if !emailRe.MatchString(value) {
			return "enter a valid email address"
		}
	case templates.FieldTel:
		if !telRe.MatchString(value) {
			return "enter a valid phone number"
		}
	case templates.FieldDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return "enter a valid date"
		}
	case templates.FieldNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return "enter a valid number"
		}
	}
	return ""
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Next advances the form when the current step validates. It returns the
// validation errors otherwise.
func Next(tpl *templates.Template, state *FormState) map[string]string {
	if errs := ValidateStep(tpl, state, state.Step); len(errs) > 0 {
		return errs
	}
	if state.Step < TotalSteps(tpl)-1 {
		state.Step++
	}
	return nil
}

// Previous steps back without validating; partial input is kept.
func Previous(state *FormState) {
	if state.Step > 0 {
		state.Step--
	}
}

// AddInstance appends an empty instance to a repeatable field.
func AddInstance(state *FormState, fieldID string) {
	state.Instances[fieldID] = append(state.Instances[fieldID], map[string]string{})
}

// RemoveInstance deletes one instance; later instances shift down, so their
// error keys re-index on the next validation. Out-of-range indexes are a
// no-op.
func RemoveInstance(state *FormState, fieldID string, index int) {
	instances := state.Instances[fieldID]
	if index < 0 || index >= len(instances) {
		return
	}
	state.Instances[fieldID] = append(instances[:index], instances[index+1:]...)
}
