package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcf-converter/backend/internal/models"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	c, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, c.Name())

	c, err = r.Get("OnlyNumber")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, c.Name())

	_, err = r.Get("missing")
	assert.Error(t, err)

	require.NoError(t, r.Register(models.Profile{Name: "Plain", Strip: nil}))
	c, err = r.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, "Plain", c.Name())
	assert.Equal(t, []string{"1"}, c.FilterLines("AAA1\n1"))

	require.NoError(t, r.SetDefault("plain"))
	c, err = r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "Plain", c.Name())

	assert.Error(t, r.SetDefault("nope"))

	profiles := r.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "Plain", profiles[0].Name)
	assert.Equal(t, DefaultProfileName, profiles[1].Name)
}

func TestRegistryRegisterAllStopsOnInvalid(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterAll(&models.ProfileSet{Profiles: []models.Profile{
		{Name: "ok"},
		{Name: "broken", Pattern: "("},
	}})
	assert.Error(t, err)

	_, err = r.Get("ok")
	assert.NoError(t, err)
	_, err = r.Get("broken")
	assert.Error(t, err)
}
