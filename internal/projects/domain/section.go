package domain

import (
	"encoding/json"
	"fmt"
)

type SectionType string

const (
	SectionHero      SectionType = "HERO"
	SectionAbout     SectionType = "ABOUT"
	SectionGallery   SectionType = "GALLERY"
	SectionAmenities SectionType = "AMENITIES"
	SectionReviews   SectionType = "REVIEWS"
	SectionLocation  SectionType = "LOCATION"
	SectionBooking   SectionType = "BOOKING"
	SectionFAQ       SectionType = "FAQ"
	SectionContact   SectionType = "CONTACT"
)

// SectionTypes lists every section kind in editor palette order.
func SectionTypes() []SectionType {
	return []SectionType{
		SectionHero,
		SectionAbout,
		SectionGallery,
		SectionAmenities,
		SectionReviews,
		SectionLocation,
		SectionBooking,
		SectionFAQ,
		SectionContact,
	}
}

// SectionBase holds the props every section kind carries.
type SectionBase struct {
	IsActive bool `json:"isActive"`
	Order    int  `json:"order"`
}

func (b *SectionBase) Base() *SectionBase { return b }

// SectionProps is the payload of one section kind. Implementations are the
// pointer types below; each embeds SectionBase.
type SectionProps interface {
	Type() SectionType
	Base() *SectionBase
}

type HeroProps struct {
	SectionBase
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	CTALabel string `json:"ctaLabel,omitempty"`
}

func (*HeroProps) Type() SectionType { return SectionHero }

type AboutProps struct {
	SectionBase
	Heading      string `json:"heading"`
	Body         string `json:"body"`
	HostName     string `json:"hostName,omitempty"`
	HostPhotoURL string `json:"hostPhotoUrl,omitempty"`
}

func (*AboutProps) Type() SectionType { return SectionAbout }

type GalleryImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

type GalleryProps struct {
	SectionBase
	Images  []GalleryImage `json:"images"`
	Columns int            `json:"columns,omitempty"`
}

func (*GalleryProps) Type() SectionType { return SectionGallery }

type AmenitiesProps struct {
	SectionBase
	Heading string   `json:"heading,omitempty"`
	Items   []string `json:"items"`
}

func (*AmenitiesProps) Type() SectionType { return SectionAmenities }

type Review struct {
	Author string `json:"author"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type ReviewsProps struct {
	SectionBase
	Heading    string   `json:"heading,omitempty"`
	Reviews    []Review `json:"reviews"`
	ShowRating bool     `json:"showRating"`
}

func (*ReviewsProps) Type() SectionType { return SectionReviews }

type LocationProps struct {
	SectionBase
	Address   string   `json:"address"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Zoom      int      `json:"zoom,omitempty"`
	Nearby    []string `json:"nearby,omitempty"`
}

func (*LocationProps) Type() SectionType { return SectionLocation }

type BookingProps struct {
	SectionBase
	Provider    string  `json:"provider,omitempty"`
	WidgetURL   string  `json:"widgetUrl,omitempty"`
	NightlyRate float64 `json:"nightlyRate,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	MinNights   int     `json:"minNights,omitempty"`
}

func (*BookingProps) Type() SectionType { return SectionBooking }

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQProps struct {
	SectionBase
	Items []FAQItem `json:"items"`
}

func (*FAQProps) Type() SectionType { return SectionFAQ }

type ContactProps struct {
	SectionBase
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	ShowForm bool   `json:"showForm"`
}

func (*ContactProps) Type() SectionType { return SectionContact }

// NewSectionProps returns an empty, active payload for t.
func NewSectionProps(t SectionType) (SectionProps, error) {
	var p SectionProps
	switch t {
	case SectionHero:
		p = &HeroProps{}
	case SectionAbout:
		p = &AboutProps{}
	case SectionGallery:
		p = &GalleryProps{Images: []GalleryImage{}}
	case SectionAmenities:
		p = &AmenitiesProps{Items: []string{}}
	case SectionReviews:
		p = &ReviewsProps{Reviews: []Review{}, ShowRating: true}
	case SectionLocation:
		p = &LocationProps{}
	case SectionBooking:
		p = &BookingProps{}
	case SectionFAQ:
		p = &FAQProps{Items: []FAQItem{}}
	case SectionContact:
		p = &ContactProps{ShowForm: true}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSectionType, t)
	}
	p.Base().IsActive = true
	return p, nil
}

// Section is one typed, orderable content block.
type Section struct {
	ID    string
	Type  SectionType
	Props SectionProps
}

// NewSection creates an active section of type t with a fresh id.
func NewSection(t SectionType) (Section, error) {
	props, err := NewSectionProps(t)
	if err != nil {
		return Section{}, err
	}
	return Section{ID: NewSectionID(), Type: t, Props: props}, nil
}

// Order returns props.order, or -1 for a section without props.
func (s Section) Order() int {
	if s.Props == nil {
		return -1
	}
	return s.Props.Base().Order
}

// IsActive reports props.isActive.
func (s Section) IsActive() bool {
	return s.Props != nil && s.Props.Base().IsActive
}

func (s Section) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: section id required", ErrInvalidProject)
	}
	if s.Props == nil {
		return fmt.Errorf("%w: section %s has no props", ErrInvalidProject, s.ID)
	}
	if s.Props.Type() != s.Type {
		return fmt.Errorf("%w: section %s is %s but carries %s props", ErrInvalidProject, s.ID, s.Type, s.Props.Type())
	}
	if s.Props.Base().Order < 0 {
		return fmt.Errorf("%w: section %s has negative order", ErrInvalidProject, s.ID)
	}
	return nil
}

type sectionJSON struct {
	ID    string          `json:"id"`
	Type  SectionType     `json:"type"`
	Props json.RawMessage `json:"props,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	props := s.Props
	if props == nil {
		var err error
		if props, err = NewSectionProps(s.Type); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sectionJSON{ID: s.ID, Type: s.Type, Props: raw})
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var aux sectionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	props, err := NewSectionProps(aux.Type)
	if err != nil {
		return err
	}
	if len(aux.Props) > 0 && string(aux.Props) != "null" {
		if err := json.Unmarshal(aux.Props, props); err != nil {
			return fmt.Errorf("decode %s props: %w", aux.Type, err)
		}
	}

	s.ID = aux.ID
	s.Type = aux.Type
	s.Props = props
	return nil
}

// Clone deep-copies the section, including slices inside its payload.
func (s Section) Clone() Section {
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var cp Section
	if err := json.Unmarshal(data, &cp); err != nil {
		return s
	}
	return cp
}

// CloneSections deep-copies a section list; nil stays nil.
func CloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
