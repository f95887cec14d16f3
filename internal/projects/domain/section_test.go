package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection_JSONShape(t *testing.T) {
	s := Section{
		ID:   "sec_1",
		Type: SectionHero,
		Props: &HeroProps{
			SectionBase: SectionBase{IsActive: true, Order: 3},
			Title:       "Casa Azul",
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "sec_1", raw["id"])
	assert.Equal(t, "HERO", raw["type"])

	props := raw["props"].(map[string]any)
	assert.Equal(t, true, props["isActive"])
	assert.Equal(t, float64(3), props["order"])
	assert.Equal(t, "Casa Azul", props["title"])
}

func TestSection_DecodeDispatchesOnType(t *testing.T) {
	t.Run("known type gets its payload struct", func(t *testing.T) {
		var s Section
		err := json.Unmarshal([]byte(`{"id":"a","type":"FAQ","props":{"isActive":false,"order":1,"items":[{"question":"Pets?","answer":"Yes"}]}}`), &s)
		require.NoError(t, err)

		faq, ok := s.Props.(*FAQProps)
		require.True(t, ok, "expected *FAQProps, got %T", s.Props)
		assert.False(t, faq.IsActive)
		assert.Equal(t, 1, faq.Order)
		require.Len(t, faq.Items, 1)
		assert.Equal(t, "Pets?", faq.Items[0].Question)
	})

	t.Run("missing props default to an active empty payload", func(t *testing.T) {
		var s Section
		require.NoError(t, json.Unmarshal([]byte(`{"id":"b","type":"CONTACT"}`), &s))
		assert.True(t, s.IsActive())
		assert.True(t, s.Props.(*ContactProps).ShowForm)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		var s Section
		err := json.Unmarshal([]byte(`{"id":"c","type":"CAROUSEL","props":{}}`), &s)
		assert.True(t, errors.Is(err, ErrUnknownSectionType))
	})
}

func TestNewSectionProps_EveryType(t *testing.T) {
	for _, typ := range SectionTypes() {
		p, err := NewSectionProps(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, p.Type())
		assert.True(t, p.Base().IsActive)
	}
}

func TestSection_CloneIsDeep(t *testing.T) {
	s := Section{ID: "g", Type: SectionGallery, Props: &GalleryProps{Images: []GalleryImage{{URL: "a.jpg"}}}}
	cp := s.Clone()

	cp.Props.(*GalleryProps).Images[0].URL = "b.jpg"
	assert.Equal(t, "a.jpg", s.Props.(*GalleryProps).Images[0].URL)
}

func TestSection_Validate(t *testing.T) {
	ok, err := NewSection(SectionAbout)
	require.NoError(t, err)
	require.NoError(t, ok.Validate())

	mismatched := ok
	mismatched.Type = SectionHero
	assert.ErrorIs(t, mismatched.Validate(), ErrInvalidProject)

	noID := ok
	noID.ID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalidProject)
}
