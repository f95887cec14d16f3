package domain

import (
	"fmt"
	"strings"
	"time"
)

// Project is one host's site draft: an ordered list of sections plus a theme.
// It is storage-agnostic and shared by the remote store, the local cache and
// the HTTP layer.
type Project struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Sections   []Section  `json:"sections"`
	Theme      Theme      `json:"theme"`
	LayoutType LayoutType `json:"layoutType"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	SyncState  SyncState  `json:"syncState,omitempty"`
}

// SyncState records whether a project is known to exist in the remote store.
type SyncState string

const (
	SyncStateSynced SyncState = "synced"
	// SyncStateLocal marks a record synthesized by a fallback path that still
	// has to be pushed to the remote store.
	SyncStateLocal SyncState = "local"
)

type Accent string

const (
	AccentOcean  Accent = "ocean"
	AccentSunset Accent = "sunset"
	AccentForest Accent = "forest"
	AccentSand   Accent = "sand"
	AccentSlate  Accent = "slate"
	AccentCoral  Accent = "coral"
)

func (a Accent) Valid() bool {
	switch a {
	case AccentOcean, AccentSunset, AccentForest, AccentSand, AccentSlate, AccentCoral:
		return true
	}
	return false
}

type Font string

const (
	FontInter      Font = "inter"
	FontPlayfair   Font = "playfair"
	FontLora       Font = "lora"
	FontMontserrat Font = "montserrat"
	FontNunito     Font = "nunito"
)

func (f Font) Valid() bool {
	switch f {
	case FontInter, FontPlayfair, FontLora, FontMontserrat, FontNunito:
		return true
	}
	return false
}

type Theme struct {
	Accent Accent `json:"accent"`
	Font   Font   `json:"font"`
}

// DefaultTheme is applied to projects created without one.
func DefaultTheme() Theme {
	return Theme{Accent: AccentOcean, Font: FontInter}
}

func (t Theme) Validate() error {
	if !t.Accent.Valid() {
		return fmt.Errorf("%w: unknown accent %q", ErrInvalidProject, t.Accent)
	}
	if !t.Font.Valid() {
		return fmt.Errorf("%w: unknown font %q", ErrInvalidProject, t.Font)
	}
	return nil
}

type LayoutType string

const (
	LayoutClassic  LayoutType = "classic"
	LayoutModern   LayoutType = "modern"
	LayoutMinimal  LayoutType = "minimal"
	LayoutMagazine LayoutType = "magazine"
)

func (l LayoutType) Valid() bool {
	switch l {
	case LayoutClassic, LayoutModern, LayoutMinimal, LayoutMagazine:
		return true
	}
	return false
}

// CreateInput carries the caller-supplied fields of a new project.
type CreateInput struct {
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Sections   []Section  `json:"sections"`
	Theme      *Theme     `json:"theme,omitempty"`
	LayoutType LayoutType `json:"layoutType,omitempty"`
}

// Validate checks the enums and sections present on the input.
func (in CreateInput) Validate() error {
	if in.Theme != nil {
		if err := in.Theme.Validate(); err != nil {
			return err
		}
	}
	if in.LayoutType != "" && !in.LayoutType.Valid() {
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidProject, in.LayoutType)
	}
	for _, s := range in.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewProject builds a fully defaulted project from in. id may be empty when the
// remote store assigns it.
func NewProject(ownerID, id string, in CreateInput, now time.Time) *Project {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Untitled site"
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	theme := DefaultTheme()
	if in.Theme != nil {
		theme = *in.Theme
	}

	layout := in.LayoutType
	if layout == "" {
		layout = LayoutClassic
	}

	sections := CloneSections(in.Sections)
	NormalizeOrder(sections)

	return &Project{
		ID:         id,
		OwnerID:    ownerID,
		Name:       name,
		Slug:       slug,
		Sections:   sections,
		Theme:      theme,
		LayoutType: layout,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy so cached and in-flight records never share sections.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Sections = CloneSections(p.Sections)
	return &cp
}

// NextUpdatedAt returns a timestamp strictly after prev, preferring now.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
