package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/entrhq/relist/pkg/config"
)

// methodOverride tells the remote form handler to treat the POST as an update.
const methodOverride = "PUT"

// Field is one key/value pair of a form body.
type Field struct {
	Name  string
	Value string
}

// Form is an ordered form body. Keys may repeat; the remote parser keeps the
// last occurrence.
type Form []Field

// Add appends a field.
func (f *Form) Add(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}

// Values returns every value recorded for name, in order.
func (f Form) Values(name string) []string {
	var values []string
	for _, field := range f {
		if field.Name == name {
			values = append(values, field.Value)
		}
	}
	return values
}

// Encode renders the form as application/x-www-form-urlencoded, keeping
// field order and duplicates.
func (f Form) Encode() string {
	var b strings.Builder
	for i, field := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// toggle maps a configured tutoring type to its backend checkbox field.
type toggle struct {
	Field   string
	Enabled func(config.TutoringTypes) bool
}

// toggles lists the seven service-offering checkboxes in submission order.
var toggles = []toggle{
	{"one_on_one_tutoring", func(t config.TutoringTypes) bool { return t.OneOnOne }},
	{"group_tutoring", func(t config.TutoringTypes) bool { return t.Group }},
	{"home_visits", func(t config.TutoringTypes) bool { return t.HomeVisits }},
	{"teaching_studio", func(t config.TutoringTypes) bool { return t.TeachingStudio }},
	{"phone_help", func(t config.TutoringTypes) bool { return t.PhoneHelp }},
	{"online_help", func(t config.TutoringTypes) bool { return t.OnlineHelp }},
	{"in_person", func(t config.TutoringTypes) bool { return t.InPerson }},
}

// ToggleFields returns the backend names of the seven toggles in order.
func ToggleFields() []string {
	fields := make([]string, len(toggles))
	for i, t := range toggles {
		fields[i] = t.Field
	}
	return fields
}

// UpdateFields are the listing values that go into every update.
type UpdateFields struct {
	Token         string
	TutorType     string
	HourlyRate    float64
	Description   string
	TutoringTypes config.TutoringTypes
}

// BuildUpdateForm builds the update body. Every toggle is sent as 0 and,
// when enabled, sent again as 1 so the checked state wins; leaving a field
// out is not the same as sending 0 on the remote side.
func BuildUpdateForm(f UpdateFields) Form {
	form := make(Form, 0, 5+2*len(toggles))
	form.Add("_token", f.Token)
	form.Add("_method", methodOverride)
	form.Add("type", f.TutorType)
	form.Add("hourly_rate", strconv.FormatFloat(f.HourlyRate, 'f', -1, 64))
	form.Add("description", f.Description)

	for _, t := range toggles {
		form.Add(t.Field, "0")
		if t.Enabled(f.TutoringTypes) {
			form.Add(t.Field, "1")
		}
	}
	return form
}
