package domain

import "strings"

type RemoteAccount struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type Profile struct {
	Name                string         `json:"name"`
	Archetype           string         `json:"archetype,omitempty"`
	Chronotype          string         `json:"chronotype,omitempty"`
	Goal                string         `json:"goal,omitempty"`
	RemoteAccount       *RemoteAccount `json:"remoteAccount"`
	OnboardingCompleted bool           `json:"onboardingCompleted"`
}

// ProfilePatch is a partial profile; nil fields are left untouched.
type ProfilePatch struct {
	Name                *string
	Archetype           *string
	Chronotype          *string
	Goal                *string
	RemoteAccount       *RemoteAccount
	OnboardingCompleted *bool
}

// Apply overwrites p field by field and returns only the fields whose value
// actually changed.
func (patch ProfilePatch) Apply(p *Profile) ProfilePatch {
	changed := ProfilePatch{}
	setString := func(dst *string, src *string) *string {
		if src == nil {
			return nil
		}
		value := strings.TrimSpace(*src)
		if *dst == value {
			return nil
		}
		*dst = value
		return &value
	}
	changed.Name = setString(&p.Name, patch.Name)
	changed.Archetype = setString(&p.Archetype, patch.Archetype)
	changed.Chronotype = setString(&p.Chronotype, patch.Chronotype)
	changed.Goal = setString(&p.Goal, patch.Goal)
	if patch.RemoteAccount != nil && (p.RemoteAccount == nil || *p.RemoteAccount != *patch.RemoteAccount) {
		account := *patch.RemoteAccount
		p.RemoteAccount = &account
		changed.RemoteAccount = &account
	}
	if patch.OnboardingCompleted != nil && p.OnboardingCompleted != *patch.OnboardingCompleted {
		value := *patch.OnboardingCompleted
		p.OnboardingCompleted = value
		changed.OnboardingCompleted = &value
	}
	return changed
}

func (patch ProfilePatch) Empty() bool {
	return patch.Name == nil && patch.Archetype == nil && patch.Chronotype == nil && patch.Goal == nil &&
		patch.RemoteAccount == nil && patch.OnboardingCompleted == nil
}
