package workout

import (
	"encoding/xml"
	"fmt"
	"io"
)

// zwo XML document shapes. Power attributes are fractions of FTP formatted
// to two decimals, matching what Zwift and Wahoo head units expect.

type zwoFile struct {
	XMLName     xml.Name   `xml:"workout_file"`
	Author      string     `xml:"author"`
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	SportType   string     `xml:"sportType"`
	Tags        struct{}   `xml:"tags"`
	Workout     zwoWorkout `xml:"workout"`
}

type zwoWorkout struct {
	Steps []any
}

func (w zwoWorkout) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, s := range w.Steps {
		if err := e.Encode(s); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type zwoRamp struct {
	XMLName   xml.Name
	Duration  int    `xml:"Duration,attr"`
	PowerLow  string `xml:"PowerLow,attr"`
	PowerHigh string `xml:"PowerHigh,attr"`
	Pace      string `xml:"pace,attr"`
}

type zwoSteady struct {
	XMLName  xml.Name `xml:"SteadyState"`
	Duration int      `xml:"Duration,attr"`
	Power    string   `xml:"Power,attr"`
	Pace     string   `xml:"pace,attr"`
}

type zwoIntervals struct {
	XMLName     xml.Name `xml:"IntervalsT"`
	Repeat      int      `xml:"Repeat,attr"`
	OnDuration  int      `xml:"OnDuration,attr"`
	OffDuration int      `xml:"OffDuration,attr"`
	OnPower     string   `xml:"OnPower,attr"`
	OffPower    string   `xml:"OffPower,attr"`
	Pace        string   `xml:"pace,attr"`
}

func pf(v float64) string { return fmt.Sprintf("%.2f", v) }

// WriteZWO renders the steps as a Zwift .zwo workout file.
func WriteZWO(w io.Writer, name, description string, steps []Step) error {
	doc := zwoFile{
		Author:      "cyclecoach",
		Name:        name,
		Description: description,
		SportType:   "bike",
	}

	for _, s := range steps {
		switch s.Type {
		case StepWarmup:
			doc.Workout.Steps = append(doc.Workout.Steps, zwoRamp{
				XMLName:   xml.Name{Local: "Warmup"},
				Duration:  s.DurationSeconds,
				PowerLow:  pf(s.PowerStart),
				PowerHigh: pf(s.PowerEnd),
				Pace:      "0",
			})
		case StepCooldown:
			doc.Workout.Steps = append(doc.Workout.Steps, zwoRamp{
				XMLName:   xml.Name{Local: "Cooldown"},
				Duration:  s.DurationSeconds,
				PowerLow:  pf(s.PowerStart),
				PowerHigh: pf(s.PowerEnd),
				Pace:      "0",
			})
		case StepSteadyState:
			doc.Workout.Steps = append(doc.Workout.Steps, zwoSteady{
				Duration: s.DurationSeconds,
				Power:    pf(s.Power),
				Pace:     "0",
			})
		case StepInterval:
			doc.Workout.Steps = append(doc.Workout.Steps, zwoIntervals{
				Repeat:      s.Repeat,
				OnDuration:  s.OnDuration,
				OffDuration: s.OffDuration,
				OnPower:     pf(s.OnPower),
				OffPower:    pf(s.OffPower),
				Pace:        "0",
			})
		default:
			return fmt.Errorf("unknown step type %q", s.Type)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode zwo: %w", err)
	}
	return enc.Close()
}
