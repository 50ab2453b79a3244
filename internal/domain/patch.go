package domain

// ActivityPatch is a sparse update of an Activity. A nil field is absent and
// leaves the target's value untouched; a non-nil field overwrites it, even
// with an empty string.
type ActivityPatch struct {
	Time                *string `json:"time,omitempty"`
	Title               *string `json:"title,omitempty"`
	Description         *string `json:"description,omitempty"`
	Location            *string `json:"location,omitempty"`
	Icon                *string `json:"icon,omitempty"`
	TransportSuggestion *string `json:"transportSuggestion,omitempty"`
}

// Apply merges the patch onto a field by field and returns the result.
// The ID is never patched.
func (p ActivityPatch) Apply(a Activity) Activity {
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Icon != nil {
		a.Icon = *p.Icon
	}
	if p.TransportSuggestion != nil {
		a.TransportSuggestion = *p.TransportSuggestion
	}
	return a
}

// IsEmpty reports whether the patch carries no fields.
func (p ActivityPatch) IsEmpty() bool {
	return p.Time == nil && p.Title == nil && p.Description == nil &&
		p.Location == nil && p.Icon == nil && p.TransportSuggestion == nil
}
