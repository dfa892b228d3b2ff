package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdrive/adpilot/app/services"
)

func newTestResolver(client services.AdsPlatformClient) TargetingResolver {
	return NewTargetingResolver(client, nil, "", nil)
}

func TestTargetingResolver_ResolvesKnownState(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		Locations: []LocationTerm{{Type: "state", Name: "Wisconsin"}},
	}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Locations, 1)
	assert.Equal(t, "3892", resolved.Locations[0].PlatformID)
	assert.False(t, resolved.Locations[0].Fallback)
	assert.Empty(t, resolved.Warnings)
}

func TestTargetingResolver_StateLookupIsCaseInsensitive(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		Locations: []LocationTerm{{Type: "state", Name: "  nEW yORK  "}},
	}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Locations, 1)
	assert.Equal(t, "3875", resolved.Locations[0].PlatformID)
}

func TestTargetingResolver_UnknownLocationFallsBackWithWarning(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		Locations: []LocationTerm{{Type: "state", Name: "Nowhereland"}},
	}, "token")
	require.NoError(t, err)

	// Unresolvable location degrades to the default region, surfaced as a warning
	require.Len(t, resolved.Locations, 1)
	assert.Equal(t, "3892", resolved.Locations[0].PlatformID)
	assert.True(t, resolved.Locations[0].Fallback)
	require.Len(t, resolved.Warnings, 1)
	assert.Contains(t, resolved.Warnings[0], "Nowhereland")
}

func TestTargetingResolver_ZipBecomesCountryQualifiedKey(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		Locations: []LocationTerm{{Type: "zip", Name: "53202"}},
	}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Locations, 1)
	assert.Equal(t, "zip", resolved.Locations[0].Type)
	assert.Equal(t, "US:53202", resolved.Locations[0].PlatformID)
}

func TestTargetingResolver_NoLocationsGetsDefaultRegion(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Locations, 1)
	assert.Equal(t, "3892", resolved.Locations[0].PlatformID)
	assert.NotEmpty(t, resolved.Warnings)
}

func TestTargetingResolver_InterestResolvedFromPlatformSearch(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	mock.Interests["pickup trucks"] = []services.InterestMatch{
		{ID: "6003132957183", Name: "Pickup trucks", AudienceSize: 120000000},
	}
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		InterestKeywords: []string{"pickup trucks"},
	}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Interests, 1)
	assert.Equal(t, "6003132957183", resolved.Interests[0].PlatformID)
	assert.Equal(t, "pickup trucks", resolved.Interests[0].Keyword)
}

func TestTargetingResolver_ExactNameMatchPreferred(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	mock.Interests["trucks"] = []services.InterestMatch{
		{ID: "111", Name: "Truck driver"},
		{ID: "222", Name: "Trucks"},
	}
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		InterestKeywords: []string{"trucks"},
	}, "token")
	require.NoError(t, err)

	require.Len(t, resolved.Interests, 1)
	assert.Equal(t, "222", resolved.Interests[0].PlatformID)
}

func TestTargetingResolver_UnmatchedInterestDroppedNotFatal(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		Locations:        []LocationTerm{{Type: "state", Name: "Texas"}},
		InterestKeywords: []string{"zero match keyword"},
	}, "token")
	require.NoError(t, err)

	// The ad set targets broadly instead of aborting the request
	assert.Empty(t, resolved.Interests)
	require.Len(t, resolved.Warnings, 1)
	assert.Contains(t, resolved.Warnings[0], "dropped")
}

func TestTargetingResolver_SearchFailureDegradesToWarning(t *testing.T) {
	mock := services.NewMockAdsPlatformClient()
	mock.Errs["search"] = &services.PlatformError{HTTPStatus: 500, Code: 1, Message: "unknown error", Endpoint: "search"}
	resolver := newTestResolver(mock)

	resolved, err := resolver.Resolve(context.Background(), TargetingSpec{
		InterestKeywords: []string{"suvs"},
	}, "token")
	require.NoError(t, err)

	assert.Empty(t, resolved.Interests)
	assert.NotEmpty(t, resolved.Warnings)
}

func TestClampAgeRange(t *testing.T) {
	tests := []struct {
		name        string
		in          AgeRange
		wantMin     int
		wantMax     int
		wantInvalid bool
	}{
		{name: "zero values default to full range", in: AgeRange{}, wantMin: 13, wantMax: 65},
		{name: "below minimum clamps up", in: AgeRange{Min: 8, Max: 40}, wantMin: 13, wantMax: 40},
		{name: "above maximum clamps down", in: AgeRange{Min: 25, Max: 99}, wantMin: 25, wantMax: 65},
		{name: "valid range passes through", in: AgeRange{Min: 21, Max: 55}, wantMin: 21, wantMax: 55},
		{name: "min above max is invalid", in: AgeRange{Min: 50, Max: 20}, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, err := clampAgeRange(tt.in)
			if tt.wantInvalid {
				assert.ErrorIs(t, err, ErrAgeRangeInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
		})
	}
}

func TestResolvedTargeting_PayloadGroupsByGranularity(t *testing.T) {
	resolved := &ResolvedTargeting{
		Locations: []ResolvedLocation{
			{Type: "state", PlatformID: "3892"},
			{Type: "zip", PlatformID: "US:53202"},
			{Type: "city", PlatformID: "2430536"},
			{Type: "county", PlatformID: "3847"},
		},
		Interests: []ResolvedInterest{{Keyword: "trucks", PlatformID: "222", Name: "Trucks"}},
		AgeMin:    21,
		AgeMax:    55,
	}

	payload := resolved.Payload()
	assert.Len(t, payload.GeoLocations.Regions, 2)
	assert.Len(t, payload.GeoLocations.Cities, 1)
	assert.Len(t, payload.GeoLocations.Zips, 1)
	require.Len(t, payload.Interests, 1)
	assert.Equal(t, "222", payload.Interests[0].ID)
	assert.Equal(t, 21, payload.AgeMin)
	assert.Equal(t, 55, payload.AgeMax)
}
