package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"solana-wallet-report/internal/config"
)

func newTestPersonaChat(personas []config.Persona) *PersonaChat {
	cfg := &config.Config{
		GroqAPIKey: "test-key",
		GroqModel:  "llama-3.3-70b-versatile",
		Personas:   personas,
	}
	return NewPersonaChat(cfg, zap.NewNop())
}

func TestAliasRotation(t *testing.T) {
	pc := newTestPersonaChat([]config.Persona{
		{UserID: 42, Aliases: []string{"boss", "chief", "captain"}, Style: "be sarcastic"},
	})

	var seen []string
	for i := 0; i < 5; i++ {
		alias, style := pc.nextAlias(42)
		assert.Equal(t, "be sarcastic", style)
		seen = append(seen, alias)
	}

	assert.Equal(t, []string{"boss", "chief", "captain", "boss", "chief"}, seen)
}

func TestAliasRotationIsPerUser(t *testing.T) {
	pc := newTestPersonaChat([]config.Persona{
		{UserID: 1, Aliases: []string{"a", "b"}, Style: "x"},
		{UserID: 2, Aliases: []string{"c", "d"}, Style: "y"},
	})

	first, _ := pc.nextAlias(1)
	second, _ := pc.nextAlias(2)
	third, _ := pc.nextAlias(1)

	assert.Equal(t, "a", first)
	assert.Equal(t, "c", second)
	assert.Equal(t, "b", third)
}

func TestUnknownUserGetsDefaultPersona(t *testing.T) {
	pc := newTestPersonaChat(nil)

	assert.False(t, pc.Known(99))

	alias, style := pc.nextAlias(99)
	assert.Equal(t, "friend", alias)
	assert.Equal(t, defaultPersonaStyle, style)
}

func TestKnownUser(t *testing.T) {
	pc := newTestPersonaChat([]config.Persona{{UserID: 7, Aliases: []string{"pal"}}})
	assert.True(t, pc.Known(7))
	assert.False(t, pc.Known(8))
}
