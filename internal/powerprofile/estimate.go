package powerprofile

// ActivitySummary is the minimal per-ride data needed to estimate a power
// curve when full power streams are unavailable.
type ActivitySummary struct {
	AverageWatts    float64
	MaxWatts        float64
	DurationSeconds int
}

// EstimateBestEfforts derives a best-effort curve from activity summaries
// using decay heuristics: short efforts scale off the highest recorded max
// power, sustained efforts come from the best averages of long rides. Rides
// over 20 minutes anchor the 20-minute value, rides over an hour the
// 60-minute value. Durations that cannot be estimated are omitted.
func EstimateBestEfforts(activities []ActivitySummary) map[string]float64 {
	if len(activities) == 0 {
		return map[string]float64{}
	}

	var maxPower float64
	for _, a := range activities {
		if a.MaxWatts > maxPower {
			maxPower = a.MaxWatts
		}
	}
	if maxPower == 0 {
		return map[string]float64{}
	}

	var best20, best60 float64
	for _, a := range activities {
		if a.DurationSeconds > 1200 && a.AverageWatts > best20 {
			best20 = a.AverageWatts
		}
		if a.DurationSeconds > 3600 && a.AverageWatts > best60 {
			best60 = a.AverageWatts
		}
	}
	if best20 > 0 && best60 == 0 {
		best60 = best20 * 0.95
	}

	efforts := map[string]float64{
		"5s":   maxPower * 0.95,
		"15s":  maxPower * 0.85,
		"30s":  maxPower * 0.75,
		"1min": maxPower * 0.60,
	}
	if best20 > 0 {
		efforts["5min"] = best20 * 1.10
		efforts["20min"] = best20
		efforts["60min"] = best60
	} else {
		efforts["5min"] = maxPower * 0.45
		efforts["20min"] = maxPower * 0.35
		efforts["60min"] = maxPower * 0.32
	}

	for d, w := range efforts {
		if w <= 0 {
			delete(efforts, d)
		}
	}
	return efforts
}

// BestEffortsFromSamples computes the true best mean power for each canonical
// duration from a 1 Hz power stream. Durations longer than the stream are
// omitted. Prefix sums keep the scan linear per duration.
func BestEffortsFromSamples(watts []float64) map[string]float64 {
	efforts := make(map[string]float64)
	if len(watts) == 0 {
		return efforts
	}

	prefix := make([]float64, len(watts)+1)
	for i, w := range watts {
		prefix[i+1] = prefix[i] + w
	}

	for _, d := range Durations {
		n := DurationSeconds[d]
		if n > len(watts) {
			continue
		}
		var best float64
		for i := 0; i+n <= len(watts); i++ {
			if avg := (prefix[i+n] - prefix[i]) / float64(n); avg > best {
				best = avg
			}
		}
		if best > 0 {
			efforts[d] = best
		}
	}
	return efforts
}
