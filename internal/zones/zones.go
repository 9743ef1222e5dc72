// Package zones maps an athlete's threshold power (FTP) onto named
// physiological power bands. All functions are pure and total: any FTP and
// any workout-type label produce a usable result.
package zones

import "math"

// Zone is one band of the classic 7-zone percentage scheme. Zone 7 has no
// upper bound (MaxWatts is +Inf).
type Zone struct {
	Number      int
	Name        string
	MinWatts    float64
	MaxWatts    float64
	MinPct      float64 // percent of FTP
	MaxPct      float64
	Description string
}

// zoneDefs holds the fixed percentage boundaries. Bands are contiguous
// half-open brackets [Min, Max) so a sample always lands in exactly one zone.
var zoneDefs = []struct {
	name        string
	minPct      float64
	maxPct      float64
	description string
}{
	{"Active Recovery", 0, 55, "Easy spinning, blood flow, recovery"},
	{"Endurance", 55, 75, "Aerobic base building, fat oxidation"},
	{"Tempo", 75, 90, "Moderate intensity, muscular endurance"},
	{"Lactate Threshold", 90, 105, "FTP intervals, threshold training"},
	{"VO2max", 105, 120, "Maximal aerobic power, hard intervals"},
	{"Anaerobic Capacity", 120, 150, "Short, very hard efforts above VO2max"},
	{"Neuromuscular Power", 150, math.Inf(1), "Sprints, maximal power bursts"},
}

// FromThreshold returns the 7 percentage zones for the given FTP.
// Boundaries are strictly increasing and zone 1 starts at 0 W.
func FromThreshold(ftp float64) []Zone {
	zones := make([]Zone, len(zoneDefs))
	for i, d := range zoneDefs {
		zones[i] = Zone{
			Number:      i + 1,
			Name:        d.name,
			MinWatts:    ftp * d.minPct / 100,
			MaxWatts:    ftp * d.maxPct / 100,
			MinPct:      d.minPct,
			MaxPct:      d.maxPct,
			Description: d.description,
		}
	}
	return zones
}

// CPBand is a critical-power level: the power range sustainable for a given
// duration, expressed as a percent-of-FTP window. Percent tables follow
// Allen & Coggan.
type CPBand struct {
	Key             string // e.g. "CP60"
	DurationMinutes float64
	MinWatts        float64
	MaxWatts        float64
	MinPct          float64
	MaxPct          float64
	Description     string
}

var cpDefs = []struct {
	key         string
	durationMin float64
	minPct      float64
	maxPct      float64
	description string
}{
	{"CP180", 180, 50, 65, "Active Recovery / Easy Endurance"},
	{"CP90", 90, 76, 87, "Tempo / Muscular Endurance"},
	{"CP60", 60, 95, 105, "Threshold / FTP"},
	{"CP30", 30, 88, 93, "Sweet Spot"},
	{"CP12", 12, 106, 115, "VO2max"},
	{"CP6", 6, 115, 120, "VO2max High"},
	{"CP1", 1, 150, 180, "Anaerobic Capacity"},
	{"CP0.2", 0.2, 200, 300, "Neuromuscular / Sprint"},
}

// CPBands returns the 8 duration-based critical-power levels for the given
// FTP, ordered from longest to shortest sustainable duration.
func CPBands(ftp float64) []CPBand {
	bands := make([]CPBand, len(cpDefs))
	for i, d := range cpDefs {
		bands[i] = CPBand{
			Key:             d.key,
			DurationMinutes: d.durationMin,
			MinWatts:        ftp * d.minPct / 100,
			MaxWatts:        ftp * d.maxPct / 100,
			MinPct:          d.minPct,
			MaxPct:          d.maxPct,
			Description:     d.description,
		}
	}
	return bands
}

// Window is the recommended wattage window for one workout type, with a note
// on which critical-power band it targets.
type Window struct {
	MinWatts float64
	MaxWatts float64
	MinPct   float64
	MaxPct   float64
	CPBand   string
}

var workoutWindows = map[string]struct {
	minPct, maxPct float64
	cpBand         string
}{
	"Recovery":   {50, 60, "CP180 (low end)"},
	"Endurance":  {56, 75, "CP180 / Z2"},
	"Tempo":      {76, 90, "CP90 / Z3"},
	"Sweet Spot": {88, 93, "CP30 (88-93% FTP)"},
	"Threshold":  {94, 105, "CP60 / Z4"},
	"VO2max":     {106, 120, "CP6-CP12 / Z5"},
	"Anaerobic":  {120, 180, "CP1 / Z6"},
	"Force":      {80, 92, "CP30-CP90 (muscular endurance, low cadence 50-60rpm)"},
}

// ForWorkoutType returns the target wattage window for a named session
// category. Unknown labels get a generic 70-80% window rather than an error.
func ForWorkoutType(workoutType string, ftp float64) Window {
	def, ok := workoutWindows[workoutType]
	if !ok {
		return Window{
			MinWatts: ftp * 0.70,
			MaxWatts: ftp * 0.80,
			MinPct:   70,
			MaxPct:   80,
			CPBand:   "Unknown",
		}
	}
	return Window{
		MinWatts: ftp * def.minPct / 100,
		MaxWatts: ftp * def.maxPct / 100,
		MinPct:   def.minPct,
		MaxPct:   def.maxPct,
		CPBand:   def.cpBand,
	}
}

// WorkoutTypes lists the session categories ForWorkoutType knows about,
// from easiest to hardest.
var WorkoutTypes = []string{
	"Recovery", "Endurance", "Tempo", "Sweet Spot",
	"Threshold", "VO2max", "Anaerobic", "Force",
}
