package overview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
)

// Element types consumed by the client-side toggle handlers.
const (
	TrackToggleType        = "forum-track-toggle"
	SubscriptionToggleType = "forum-subscription-toggle"
)

var templates = template.Must(template.New("overview").Parse(`
{{- define "toggle" -}}
<div class="form-check form-switch">
<input type="checkbox" class="form-check-input" id="{{.ID}}" role="switch" data-type="{{.Type}}" data-action="toggle" data-forumid="{{.ForumID}}" data-targetstate="{{.TargetState}}"{{if .Checked}} checked{{end}}{{if .Disabled}} disabled{{end}}>
<label class="form-check-label visually-hidden" for="{{.ID}}">{{.Label}}</label>
</div>
{{- end -}}
{{- define "inplace" -}}
<span class="inplaceeditable inplaceeditable-select" data-inplaceeditable="1" data-component="mod_forum" data-itemtype="{{.ItemType}}" data-itemid="{{.ItemID}}" data-value="{{.Value}}" data-type="select" data-options="{{.Options}}">{{.Display}}</span>
{{- end -}}
{{- define "action" -}}
<a class="btn btn-outline-secondary btn-sm" href="{{.URL}}">{{.Label}}</a>
{{- end -}}
`))

type toggleData struct {
	ID          string
	Type        string
	ForumID     uint
	TargetState int
	Checked     bool
	Disabled    bool
	Label       string
}

type inplaceOption struct {
	Value int    `json:"key"`
	Label string `json:"value"`
}

type inplaceData struct {
	ItemType string
	ItemID   uint
	Value    int
	Options  string
	Display  string
}

type actionData struct {
	URL   string
	Label string
}

// renderToggle renders a switch whose activation moves the forum to the opposite state.
func renderToggle(toggleType string, forumID uint, state, disabled bool, label string) (string, error) {
	target := 1
	if state {
		target = 0
	}
	return execute("toggle", toggleData{
		ID:          fmt.Sprintf("%s-%d", toggleType, forumID),
		Type:        toggleType,
		ForumID:     forumID,
		TargetState: target,
		Checked:     state,
		Disabled:    disabled,
		Label:       label,
	})
}

func renderInplaceSelect(itemType string, itemID uint, value int, options []inplaceOption, display string) (string, error) {
	encoded, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return execute("inplace", inplaceData{
		ItemType: itemType,
		ItemID:   itemID,
		Value:    value,
		Options:  string(encoded),
		Display:  display,
	})
}

func renderAction(url, label string) (string, error) {
	return execute("action", actionData{URL: url, Label: label})
}

func execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
