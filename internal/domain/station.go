package domain

import "fmt"

// StationClass is the network role of a station.
type StationClass int

const (
	ClassCore StationClass = iota
	ClassRemote
	ClassInternational
)

var classNames = [...]string{
	ClassCore:          "core",
	ClassRemote:        "remote",
	ClassInternational: "international",
}

// Classes returns every station class in reporting order.
func Classes() []StationClass {
	return []StationClass{ClassCore, ClassRemote, ClassInternational}
}

func (c StationClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("StationClass(%d)", int(c))
	}
	return classNames[c]
}

// MarshalText lets classes key JSON objects by name.
func (c StationClass) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(classNames) {
		return nil, fmt.Errorf("unknown station class %d", int(c))
	}
	return []byte(classNames[c]), nil
}

func (c *StationClass) UnmarshalText(text []byte) error {
	parsed, err := ParseStationClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseStationClass maps a class name ("core", "remote", "international")
// back to its StationClass.
func ParseStationClass(name string) (StationClass, error) {
	for i, n := range classNames {
		if n == name {
			return StationClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown station class %q", name)
}

// Classify derives the station class from the identifier prefix: "CS" is core,
// "RS" is remote and everything else is international.
func Classify(stationID string) StationClass {
	if len(stationID) < 2 {
		return ClassInternational
	}
	switch stationID[:2] {
	case "CS":
		return ClassCore
	case "RS":
		return ClassRemote
	default:
		return ClassInternational
	}
}

// StationRecord is one station's entry from an observation report.
type StationRecord struct {
	StationID         string  `json:"station"`
	FlaggedPercentage float64 `json:"flagged_percentage"`
}
