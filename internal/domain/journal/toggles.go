package journal

import (
	"sort"

	"github.com/guruku/jurnal/internal/domain/shared"
)

// Toggles is the immutable per-subject automation switch set.
// Every subject is enabled unless listed as disabled; the zero value enables all.
type Toggles struct {
	disabled map[shared.SubjectKey]struct{}
}

// AllEnabled returns the default toggle set.
func AllEnabled() Toggles {
	return Toggles{}
}

// NewToggles builds a toggle set with the given subjects disabled.
func NewToggles(disabled ...shared.SubjectKey) Toggles {
	if len(disabled) == 0 {
		return Toggles{}
	}
	m := make(map[shared.SubjectKey]struct{}, len(disabled))
	for _, k := range disabled {
		if k.IsEmpty() {
			continue
		}
		m[k] = struct{}{}
	}
	return Toggles{disabled: m}
}

// Enabled reports whether journal content for subject is filled automatically.
func (t Toggles) Enabled(subject shared.SubjectKey) bool {
	_, off := t.disabled[subject]
	return !off
}

// Disable returns a copy with additional subjects disabled. t is not modified.
func (t Toggles) Disable(subjects ...shared.SubjectKey) Toggles {
	all := append(t.Disabled(), subjects...)
	return NewToggles(all...)
}

// Disabled returns the disabled subjects in sorted order.
func (t Toggles) Disabled() []shared.SubjectKey {
	out := make([]shared.SubjectKey, 0, len(t.disabled))
	for k := range t.disabled {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
