package compare

import "strings"

// continentOrder is the display order for continent-grouped output; unknown
// geography sorts last.
var continentOrder = []string{"NA", "SA", "EU", "AF", "AS", "OC", "N/A"}

var continentLabels = map[string]string{
	"NA": "North America",
	"SA": "South America",
	"EU": "Europe",
	"AF": "Africa",
	"AS": "Asia",
	"OC": "Oceania",
}

// ContinentRank maps a continent code to its display position; codes outside
// the known set sort after everything else.
func ContinentRank(continent string) int {
	key := strings.ToUpper(strings.TrimSpace(continent))
	if key == "" {
		key = "N/A"
	}
	for i, c := range continentOrder {
		if c == key {
			return i
		}
	}
	return len(continentOrder)
}

// ContinentLabel returns the human-readable name for a continent code,
// "Unknown" for anything unrecognized.
func ContinentLabel(continent string) string {
	if label, ok := continentLabels[strings.ToUpper(strings.TrimSpace(continent))]; ok {
		return label
	}
	return "Unknown"
}
