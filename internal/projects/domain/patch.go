package domain

import (
	"fmt"
	"time"
)

// ProjectPatch is a partial update. Nil fields are left unchanged; a non-nil
// Sections pointer to an empty slice clears the section list.
type ProjectPatch struct {
	Name       *string     `json:"name,omitempty"`
	Slug       *string     `json:"slug,omitempty"`
	Sections   *[]Section  `json:"sections,omitempty"`
	Theme      *Theme      `json:"theme,omitempty"`
	LayoutType *LayoutType `json:"layoutType,omitempty"`
}

func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Slug == nil && p.Sections == nil && p.Theme == nil && p.LayoutType == nil
}

func (p ProjectPatch) Validate() error {
	if p.Theme != nil {
		if err := p.Theme.Validate(); err != nil {
			return err
		}
	}
	if p.LayoutType != nil && !p.LayoutType.Valid() {
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidProject, *p.LayoutType)
	}
	if p.Slug != nil && Slugify(*p.Slug) == "" {
		return fmt.Errorf("%w: slug %q is empty after normalization", ErrInvalidProject, *p.Slug)
	}
	if p.Sections != nil {
		for _, s := range *p.Sections {
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Normalized returns a copy with the slug normalized and the sections deep-copied
// with orders re-derived from their position.
func (p ProjectPatch) Normalized() ProjectPatch {
	out := p
	if p.Slug != nil {
		slug := Slugify(*p.Slug)
		out.Slug = &slug
	}
	if p.Sections != nil {
		sections := CloneSections(*p.Sections)
		if sections == nil {
			sections = []Section{}
		}
		NormalizeOrder(sections)
		out.Sections = &sections
	}
	return out
}

// Apply merges the patch into proj. A non-empty patch moves UpdatedAt strictly
// forward; an empty patch leaves proj untouched and returns false.
func (p ProjectPatch) Apply(proj *Project, now time.Time) bool {
	if p.IsEmpty() {
		return false
	}
	n := p.Normalized()
	if n.Name != nil {
		proj.Name = *n.Name
	}
	if n.Slug != nil {
		proj.Slug = *n.Slug
	}
	if n.Sections != nil {
		proj.Sections = *n.Sections
	}
	if n.Theme != nil {
		proj.Theme = *n.Theme
	}
	if n.LayoutType != nil {
		proj.LayoutType = *n.LayoutType
	}
	proj.UpdatedAt = NextUpdatedAt(proj.UpdatedAt, now)
	return true
}

// CreateInput converts the patch into creation input for the update-or-create path.
func (p ProjectPatch) CreateInput() CreateInput {
	in := CreateInput{Theme: p.Theme}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Slug != nil {
		in.Slug = *p.Slug
	}
	if p.Sections != nil {
		in.Sections = *p.Sections
	}
	if p.LayoutType != nil {
		in.LayoutType = *p.LayoutType
	}
	return in
}
