package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteractionType_Valid(t *testing.T) {
	assert.True(t, InteractionLike.Valid())
	assert.True(t, InteractionDislike.Valid())
	assert.False(t, InteractionType("love").Valid())
	assert.False(t, InteractionType("").Valid())
}

func TestDifficulty_Valid(t *testing.T) {
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("impossible").Valid())
}

func TestLookupCountry(t *testing.T) {
	c, ok := LookupCountry("nigeria")
	assert.True(t, ok)
	assert.Equal(t, "Nigeria", c.Name)

	c, ok = LookupCountry(" jp ")
	assert.True(t, ok)
	assert.Equal(t, "Japan", c.Name)

	_, ok = LookupCountry("Atlantis")
	assert.False(t, ok)
}

func TestUserProfile(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Profile())

	p := (&User{ID: "u1", Name: "Ada", Country: "Ghana"}).Profile()
	assert.Equal(t, "u1", p.ID)
	assert.Nil(t, p.AvatarURL)

	p = (&User{ID: "u1", AvatarURL: "https://cdn/a.png"}).Profile()
	if assert.NotNil(t, p.AvatarURL) {
		assert.Equal(t, "https://cdn/a.png", *p.AvatarURL)
	}
}

func TestNewID_Ordered(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Len(t, a, 36)
	assert.Less(t, a, b)
}
