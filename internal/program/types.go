package program

import (
	"fmt"
	"strings"
)

// StepType is the closed set of step kinds.
type StepType string

const (
	TypeSongBlock     StepType = "song-block"
	TypeReading       StepType = "reading"
	TypePrayer        StepType = "prayer"
	TypeOffering      StepType = "offering"
	TypeIntercession  StepType = "intercession"
	TypeFellowship    StepType = "fellowship"
	TypeFamilyMoment  StepType = "family-moment"
	TypeAnnouncements StepType = "announcements"
	TypeSingleSong    StepType = "single-song"
	TypeOther         StepType = "other"
)

// StepTypes lists every valid type in display order.
var StepTypes = []StepType{
	TypeSongBlock,
	TypeReading,
	TypePrayer,
	TypeOffering,
	TypeIntercession,
	TypeFellowship,
	TypeFamilyMoment,
	TypeAnnouncements,
	TypeSingleSong,
	TypeOther,
}

var stepTypeLabels = map[StepType]string{
	TypeSongBlock:     "Worship",
	TypeReading:       "Bible reading",
	TypePrayer:        "Prayer",
	TypeOffering:      "Offering",
	TypeIntercession:  "Intercession",
	TypeFellowship:    "Fellowship",
	TypeFamilyMoment:  "Family moment",
	TypeAnnouncements: "Announcements",
	TypeSingleSong:    "Song",
	TypeOther:         "Other",
}

// ParseStepType validates a wire tag.
func ParseStepType(s string) (StepType, error) {
	t := StepType(strings.TrimSpace(s))
	if _, ok := stepTypeLabels[t]; !ok {
		return "", fmt.Errorf("unknown step type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of StepTypes.
func (t StepType) Valid() bool {
	_, ok := stepTypeLabels[t]
	return ok
}

// Label is the human-readable name of the type.
func (t StepType) Label() string {
	if l, ok := stepTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Liturgy is the document that owns an ordered list of steps.
type Liturgy struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"liturgy_date"` // YYYY-MM-DD
}

// Person is a profile that can be assigned to a step.
type Person struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    string `json:"role"`
}

// DisplayName joins name and surname.
func (p Person) DisplayName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}
