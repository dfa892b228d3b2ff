package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/dealerdrive/adpilot/app/services"
	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/redis/go-redis/v9"
)

// usRegionKeys maps US state names (lowercase) to the platform's numeric region keys
var usRegionKeys = map[string]string{
	"alabama": "3843", "alaska": "3844", "arizona": "3845", "arkansas": "3846",
	"california": "3847", "colorado": "3848", "connecticut": "3849", "delaware": "3850",
	"district of columbia": "3851", "florida": "3852", "georgia": "3853", "hawaii": "3854",
	"idaho": "3855", "illinois": "3856", "indiana": "3857", "iowa": "3858",
	"kansas": "3859", "kentucky": "3860", "louisiana": "3861", "maine": "3862",
	"maryland": "3863", "massachusetts": "3864", "michigan": "3865", "minnesota": "3866",
	"mississippi": "3867", "missouri": "3868", "montana": "3869", "nebraska": "3870",
	"nevada": "3871", "new hampshire": "3872", "new jersey": "3873", "new mexico": "3874",
	"new york": "3875", "north carolina": "3876", "north dakota": "3877", "ohio": "3878",
	"oklahoma": "3879", "oregon": "3880", "pennsylvania": "3881", "rhode island": "3882",
	"south carolina": "3883", "south dakota": "3884", "tennessee": "3885", "texas": "3886",
	"utah": "3887", "vermont": "3888", "virginia": "3889", "washington": "3890",
	"west virginia": "3891", "wisconsin": "3892", "wyoming": "3893",
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// CategoryInterests maps a vehicle category to the platform interest attached to its
// rotation ad sets. Adding a category is a data change here, not a code change.
var CategoryInterests = map[models.VehicleCategory]services.InterestRef{
	models.VehicleCategoryTruck: {ID: "6003132957183", Name: "Pickup trucks"},
	models.VehicleCategorySUV:   {ID: "6003384248805", Name: "Sport utility vehicles"},
}

const (
	interestCacheKeyPrefix = "adpilot:interest:"
	interestCacheTTL       = 24 * time.Hour
	interestSearchLimit    = 5
)

// TargetingResolver maps a loose targeting spec to platform-confirmed identifiers
type TargetingResolver interface {
	Resolve(ctx context.Context, spec TargetingSpec, token string) (*ResolvedTargeting, error)
}

// TargetingResolverImpl implements TargetingResolver
type TargetingResolverImpl struct {
	client           services.AdsPlatformClient
	rc               *redis.Client
	defaultRegionKey string
	logger           *log.Logger
}

// NewTargetingResolver creates a new targeting resolver. rc may be nil, in which case
// interest lookups are uncached.
func NewTargetingResolver(client services.AdsPlatformClient, rc *redis.Client, defaultRegionKey string, logger *log.Logger) TargetingResolver {
	if defaultRegionKey == "" {
		defaultRegionKey = usRegionKeys["wisconsin"]
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TargetingResolverImpl{
		client:           client,
		rc:               rc,
		defaultRegionKey: defaultRegionKey,
		logger:           logger,
	}
}

// Resolve maps every location and interest term to a platform identifier. Locations
// that cannot be resolved fall back to the configured default region (surfaced as a
// warning, never silent); interest keywords with no platform match are dropped so the
// ad set targets broadly instead of aborting the request.
func (r *TargetingResolverImpl) Resolve(ctx context.Context, spec TargetingSpec, token string) (*ResolvedTargeting, error) {
	ageMin, ageMax, err := clampAgeRange(spec.AgeRange)
	if err != nil {
		return nil, err
	}

	out := &ResolvedTargeting{AgeMin: ageMin, AgeMax: ageMax}

	for _, term := range spec.Locations {
		resolved := r.resolveLocation(term)
		if resolved.Fallback {
			warning := fmt.Sprintf("location %q not recognized, falling back to default region", term.Name)
			out.Warnings = append(out.Warnings, warning)
			r.logger.Printf("targeting: %s", warning)
		}
		out.Locations = append(out.Locations, resolved)
	}
	if len(out.Locations) == 0 {
		// A request with no locations at all still needs a geo boundary
		out.Locations = append(out.Locations, ResolvedLocation{
			Type:       "state",
			Name:       "default",
			PlatformID: r.defaultRegionKey,
			Fallback:   true,
		})
		out.Warnings = append(out.Warnings, "no locations given, using default region")
	}

	for _, keyword := range spec.InterestKeywords {
		match, err := r.lookupInterest(ctx, keyword, token)
		if err != nil {
			// Interest resolution is best-effort; a failed lookup degrades breadth
			warning := fmt.Sprintf("interest lookup for %q failed: %v", keyword, err)
			out.Warnings = append(out.Warnings, warning)
			r.logger.Printf("targeting: %s", warning)
			continue
		}
		if match == nil {
			warning := fmt.Sprintf("interest %q has no platform match, dropped", keyword)
			out.Warnings = append(out.Warnings, warning)
			r.logger.Printf("targeting: %s", warning)
			continue
		}
		out.Interests = append(out.Interests, ResolvedInterest{
			Keyword:    keyword,
			PlatformID: match.ID,
			Name:       match.Name,
		})
	}

	return out, nil
}

func (r *TargetingResolverImpl) resolveLocation(term LocationTerm) ResolvedLocation {
	name := strings.ToLower(strings.TrimSpace(term.Name))

	if term.Type == "zip" && zipPattern.MatchString(name) {
		return ResolvedLocation{Type: "zip", Name: term.Name, PlatformID: "US:" + name}
	}
	if key, ok := usRegionKeys[name]; ok {
		return ResolvedLocation{Type: "state", Name: term.Name, PlatformID: key}
	}
	return ResolvedLocation{
		Type:       "state",
		Name:       term.Name,
		PlatformID: r.defaultRegionKey,
		Fallback:   true,
	}
}

// lookupInterest returns the best platform-confirmed match for a keyword, or nil when
// the platform knows nothing matching it. Results are cached since the interest
// catalog changes rarely and search calls count against the shared rate limit.
func (r *TargetingResolverImpl) lookupInterest(ctx context.Context, keyword, token string) (*services.InterestMatch, error) {
	cacheKey := interestCacheKeyPrefix + strings.ToLower(strings.TrimSpace(keyword))

	if r.rc != nil {
		if cached, err := r.rc.Get(ctx, cacheKey).Result(); err == nil {
			var match services.InterestMatch
			if err := json.Unmarshal([]byte(cached), &match); err == nil && match.ID != "" {
				return &match, nil
			}
		}
	}

	matches, err := r.client.SearchInterests(ctx, token, keyword, interestSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	best := matches[0]
	for _, m := range matches {
		if strings.EqualFold(m.Name, keyword) {
			best = m
			break
		}
	}

	if r.rc != nil {
		if payload, err := json.Marshal(best); err == nil {
			if err := r.rc.Set(ctx, cacheKey, payload, interestCacheTTL).Err(); err != nil {
				r.logger.Printf("targeting: failed to cache interest %q: %v", keyword, err)
			}
		}
	}

	return &best, nil
}

func clampAgeRange(ar AgeRange) (int, int, error) {
	ageMin, ageMax := ar.Min, ar.Max
	if ageMin == 0 {
		ageMin = utils.MinTargetingAge
	}
	if ageMax == 0 {
		ageMax = utils.MaxTargetingAge
	}
	if ageMin < utils.MinTargetingAge {
		ageMin = utils.MinTargetingAge
	}
	if ageMax > utils.MaxTargetingAge {
		ageMax = utils.MaxTargetingAge
	}
	if ageMin > ageMax {
		return 0, 0, ErrAgeRangeInvalid
	}
	return ageMin, ageMax, nil
}
