package usecase

import (
	"math"

	"go.ngs.io/opsdash-tides/internal/domain"
)

// nearestStation returns the closest station with a known position within
// the configured radius of (lat, lon).
func (uc *PredictionUseCase) nearestStation(lat, lon float64) (domain.Station, float64, bool) {
	if uc.radiusKm <= 0 || uc.stations == nil {
		return domain.Station{}, 0, false
	}

	ids, err := uc.stations.ListStations()
	if err != nil {
		uc.logger.Warn("cannot list stations for nearest lookup", "error", err)
		return domain.Station{}, 0, false
	}

	bestDist := math.MaxFloat64
	var best domain.Station
	for _, id := range ids {
		st, err := uc.stations.LoadStation(id)
		if err != nil || st.Latitude == nil || st.Longitude == nil {
			continue
		}
		d := haversineKm(lat, lon, *st.Latitude, *st.Longitude)
		if d <= uc.radiusKm && d < bestDist {
			bestDist = d
			best = st
		}
	}
	if bestDist == math.MaxFloat64 {
		return domain.Station{}, 0, false
	}
	return best, bestDist, true
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	toRad := func(x float64) float64 { return x * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
