package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blazehunter/internal/config"
)

func testSite(t *testing.T) *config.Site {
	t.Helper()
	site, err := config.LoadSite("")
	require.NoError(t, err)
	return site
}

func TestTransition(t *testing.T) {
	site := testSite(t)

	cases := []struct {
		path    string
		section Section
		feedKey string
		nav     string
		heading string
		refetch bool
	}{
		{"/", SectionHome, "", "/", "", false},
		{"/nation/brazil", SectionNation, "brazil", "/nation", "CURRENT NATION: BRAZIL", true},
		{"/nation", SectionNation, "default", "/nation", "", true},
		{"/news", SectionNews, "news", "/news", "NEWS", true},
		{"/contact", SectionContact, "", "/contact", "CONTACT US", false},
		{"/pricing", SectionHome, "", "/", "", false},
		{"/newsletter", SectionHome, "", "/", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			_, effect := Transition(site, Home, tc.path, "default")
			assert.Equal(t, tc.section, effect.Section)
			assert.Equal(t, tc.feedKey, effect.FeedKey)
			assert.Equal(t, tc.nav, effect.ActiveNav)
			assert.Equal(t, tc.heading, effect.Heading)
			assert.Equal(t, tc.refetch, effect.Refetch)
		})
	}
}

func TestTransition_NationMobileHeadingAndTranslation(t *testing.T) {
	site := testSite(t)

	_, effect := Transition(site, Home, "/nation", "default")
	assert.Equal(t, "CURRENT NATION - PLEASE SELECT A COUNTRY", effect.MobileHeading)

	_, effect = Transition(site, Home, "/nation/vietnam", "vietnam")
	assert.Equal(t, "QUỐC GIA ĐANG CHỌN: VIETNAM", effect.Heading)
	assert.Equal(t, "/nation/vietnam", effect.ActiveNation)

	_, effect = Transition(site, Home, "/news", "klingon")
	assert.Equal(t, "NEWS", effect.Heading)
	assert.True(t, effect.IsNews)
}

func TestRouter_NavigatePushesOnlyOnChange(t *testing.T) {
	r := New(testSite(t))

	state, effect := r.Navigate("/news", "default")
	assert.Equal(t, "/news", state.Path)
	assert.True(t, effect.PushHistory)

	_, effect = r.Navigate("/news/", "default")
	assert.False(t, effect.PushHistory)

	state, _ = r.Navigate("/unknown", "default")
	assert.Equal(t, Home, state)
	assert.Equal(t, Home, r.Current())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/news", Normalize("news"))
	assert.Equal(t, "/nation/india", Normalize(" /nation/india/?x=1 "))
	assert.Equal(t, "/", Normalize("///"))
}
