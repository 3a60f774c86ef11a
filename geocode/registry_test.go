// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderKind(t *testing.T) {
	for _, k := range ProviderKinds() {
		got, err := ParseProviderKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseProviderKind("")
	require.NoError(t, err)
	assert.Equal(t, Photon, got)

	got, err = ParseProviderKind(" Nominatim ")
	require.NoError(t, err)
	assert.Equal(t, Nominatim, got)

	_, err = ParseProviderKind("bing")
	assert.ErrorContains(t, err, `unknown geocoder "bing"`)
}

func TestDefaultPolicies(t *testing.T) {
	assert.Equal(t, Policy{Pacing: time.Second, MaxConcurrency: 1}, Nominatim.DefaultPolicy())
	assert.Equal(t, Policy{Pacing: 500 * time.Millisecond, MaxConcurrency: 2}, Photon.DefaultPolicy())
	assert.Equal(t, Policy{Pacing: 500 * time.Millisecond, MaxConcurrency: 4}, ArcGIS.DefaultPolicy())
	assert.Equal(t, Policy{Pacing: 200 * time.Millisecond, MaxConcurrency: 4}, Census.DefaultPolicy())
	assert.Equal(t, Policy{Pacing: 100 * time.Millisecond, MaxConcurrency: 8}, Google.DefaultPolicy())
}

func TestNew(t *testing.T) {
	p, err := New(Nominatim, Options{Policy: Policy{Pacing: 2 * time.Second}})
	require.NoError(t, err)
	assert.Equal(t, "nominatim", p.Name())
	assert.Equal(t, Policy{Pacing: 2 * time.Second, MaxConcurrency: 1}, p.Policy())

	p, err = New(Census, Options{Policy: Policy{MaxConcurrency: 2}})
	require.NoError(t, err)
	assert.Equal(t, Policy{Pacing: 200 * time.Millisecond, MaxConcurrency: 2}, p.Policy())

	_, err = New(Google, Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err = New(Google, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	_, err = New(ProviderKind(42), Options{})
	assert.Error(t, err)
}

func TestLookupGoogleAPIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	key, err := LookupGoogleAPIKey(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
}
