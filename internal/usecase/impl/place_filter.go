package impl

import (
	"sort"
	"strings"

	"places/internal/domain/entity"
	domainerrors "places/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Coordinate and parameter bounds shared by every place query.
const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
	minRating    = 0.0
	maxRating    = 5.0

	// maxDistanceKm is the length of the equator; a distance bound at or
	// beyond it cannot constrain anything and is rejected as nonsense.
	maxDistanceKm = 40076.0
)

// Accepted ordering tokens.
const (
	orderingDistance     = "distance"
	orderingDistanceDesc = "-distance"
	orderingRating       = "rating"
	orderingRatingDesc   = "-rating"
)

func validLatitude(lat float64) bool {
	return lat >= minLatitude && lat <= maxLatitude
}

func validLongitude(lon float64) bool {
	return lon >= minLongitude && lon <= maxLongitude
}

func validRating(rating float64) bool {
	return rating >= minRating && rating <= maxRating
}

// validDistance accepts the open interval (0, maxDistanceKm).
func validDistance(km float64) bool {
	return km > 0 && km < maxDistanceKm
}

func validOrdering(ordering string) bool {
	switch ordering {
	case orderingDistance, orderingDistanceDesc, orderingRating, orderingRatingDesc:
		return true
	default:
		return false
	}
}

// validateLocation collects field errors for a query point and an
// optional distance bound.
func validateLocation(lat, lon float64, distanceKm *float64) []domainerrors.FieldError {
	var fields []domainerrors.FieldError
	if !validLatitude(lat) {
		fields = append(fields, domainerrors.FieldError{Field: "latitude", Message: "latitude must be within [-90, 90]"})
	}
	if !validLongitude(lon) {
		fields = append(fields, domainerrors.FieldError{Field: "longitude", Message: "longitude must be within [-180, 180]"})
	}
	if distanceKm != nil && !validDistance(*distanceKm) {
		fields = append(fields, domainerrors.FieldError{Field: "distance", Message: "distance must be within (0, 40076) kilometers"})
	}

	return fields
}

// distanceMeters is the geodesic distance between a place and the query point.
func distanceMeters(place *entity.Place, lat, lon float64) float64 {
	return geo.DistanceHaversine(
		orb.Point{place.Longitude, place.Latitude},
		orb.Point{lon, lat},
	)
}

// withinDistance keeps the places whose geodesic distance from the
// query point does not exceed the kilometre bound.
func withinDistance(places []*entity.Place, lat, lon, km float64) []*entity.Place {
	kept := make([]*entity.Place, 0, len(places))
	for _, place := range places {
		if distanceMeters(place, lat, lon) <= km*1000 {
			kept = append(kept, place)
		}
	}

	return kept
}

// inCategories keeps the places whose category is in the given set. An
// empty set keeps everything.
func inCategories(places []*entity.Place, categories []string) []*entity.Place {
	if len(categories) == 0 {
		return places
	}

	allowed := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		allowed[category] = struct{}{}
	}

	kept := make([]*entity.Place, 0, len(places))
	for _, place := range places {
		if _, ok := allowed[place.Category.String()]; ok {
			kept = append(kept, place)
		}
	}

	return kept
}

// excludeByOwnerRating drops the places whose owner rated them below
// the threshold. A place whose owner never rated it is kept: absence of
// a curator opinion is not a negative signal.
func excludeByOwnerRating(places []*entity.Place, threshold float64) []*entity.Place {
	kept := make([]*entity.Place, 0, len(places))
	for _, place := range places {
		if ownerRating := place.OwnerRating(); ownerRating != nil && ownerRating.Rating < threshold {
			continue
		}
		kept = append(kept, place)
	}

	return kept
}

// orderPlaces sorts by the requested annotation. Distance is measured
// from the query point; rating is the requesting user's average on each
// place (zero when they have none). The sort is stable, so places with
// equal keys keep their incoming primary-key order. An empty ordering
// leaves the slice untouched.
func orderPlaces(places []*entity.Place, ordering string, lat, lon float64, userID uuid.UUID) {
	var key func(*entity.Place) float64
	descending := strings.HasPrefix(ordering, "-")

	switch strings.TrimPrefix(ordering, "-") {
	case orderingDistance:
		key = func(p *entity.Place) float64 { return distanceMeters(p, lat, lon) }
	case orderingRating:
		key = func(p *entity.Place) float64 { return p.RatingAverageFor(userID) }
	default:
		return
	}

	sort.SliceStable(places, func(i, j int) bool {
		if descending {
			return key(places[i]) > key(places[j])
		}

		return key(places[i]) < key(places[j])
	})
}

// searchPlaces keeps the places matching the free-text query on name,
// category or address, case-insensitively. An empty query keeps
// everything.
func searchPlaces(places []*entity.Place, query string) []*entity.Place {
	query = strings.TrimSpace(query)
	if query == "" {
		return places
	}
	needle := strings.ToLower(query)

	kept := make([]*entity.Place, 0, len(places))
	for _, place := range places {
		if strings.Contains(strings.ToLower(place.Name), needle) ||
			strings.Contains(strings.ToLower(place.Category.String()), needle) ||
			strings.Contains(strings.ToLower(place.Address), needle) {
			kept = append(kept, place)
		}
	}

	return kept
}

// paginate returns the 1-based page of the given size.
func paginate(places []*entity.Place, page, size int) []*entity.Place {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(places) {
		return nil
	}
	end := start + size
	if end > len(places) {
		end = len(places)
	}

	return places[start:end]
}

// splitByCategory partitions the places into per-category buckets,
// keeping at most limit places per bucket in their incoming order.
// Categories with no places produce no bucket.
func splitByCategory(places []*entity.Place, limit int) map[string][]*entity.Place {
	buckets := make(map[string][]*entity.Place)
	for _, place := range places {
		category := place.Category.String()
		if len(buckets[category]) >= limit {
			continue
		}
		buckets[category] = append(buckets[category], place)
	}

	return buckets
}
