package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedVariants(t *testing.T) {
	store := NewMemoryStore(Seed())

	qa, ok := store.FindByID("qa")
	require.True(t, ok)
	assert.False(t, qa.HasIntro())
	assert.Nil(t, qa.MaxOutputTokens)
	assert.Equal(t, LayoutFull, qa.Layout)

	mh, ok := store.FindByID("mental-health")
	require.True(t, ok)
	assert.True(t, mh.HasIntro())
	require.NotNil(t, mh.MaxOutputTokens)
	assert.Equal(t, int32(200), *mh.MaxOutputTokens)
	require.NotNil(t, mh.Temperature)
	assert.InDelta(t, 0.7, *mh.Temperature, 1e-6)
	assert.NotEmpty(t, mh.Disclaimer)

	side, ok := store.FindByID("mental-health-sidebar")
	require.True(t, ok)
	assert.Equal(t, LayoutSidebar, side.Layout)
	assert.Equal(t, 2, side.MaxLatest)
	assert.Equal(t, mh.OpeningLine, side.OpeningLine)
}

func TestOverrideDoesNotMutateInput(t *testing.T) {
	seeds := Seed()
	out := Override(seeds, func(p *Persona) { p.LogoPath = "/tmp/logo.png" })

	assert.Empty(t, seeds[0].LogoPath)
	for _, p := range out {
		assert.Equal(t, "/tmp/logo.png", p.LogoPath)
	}
}

func TestFindByIDMissing(t *testing.T) {
	store := NewMemoryStore(nil)
	_, ok := store.FindByID("qa")
	assert.False(t, ok)
	assert.Empty(t, store.List())
}

func TestApplyLogoOnlyTouchesSidebarLayout(t *testing.T) {
	store := NewMemoryStore(ApplyLogo(Seed(), "/srv/logo.png"))

	side, _ := store.FindByID("mental-health-sidebar")
	assert.Equal(t, "/srv/logo.png", side.LogoPath)
	for _, id := range []string{"qa", "mental-health"} {
		p, _ := store.FindByID(id)
		assert.Empty(t, p.LogoPath, id)
	}

	assert.Equal(t, Seed(), ApplyLogo(Seed(), ""))
}
