// Package region decodes the compact province/city/district tables into a
// navigable hierarchy.
package region

import (
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/weather-history-service/internal/domain"
)

// Tables are the three encoded region tables, keyed by province code.
//
//	Provinces: "B 北京"
//	Cities:    "54511-B 北京-54511" or "58606-N 南昌|58502-J 九江"
//	Districts: ["70463-A 安义-58606|70464-J 进贤-58606", ...]
type Tables struct {
	Provinces map[string]string   `yaml:"provinces"`
	Cities    map[string]string   `yaml:"cities"`
	Districts map[string][]string `yaml:"districts"`
}

// UnmatchedGroup is a district group dropped because no city in its
// province carries the group's owner code.
type UnmatchedGroup struct {
	ProvinceCode string
	OwnerCode    string
	Size         int
}

// Decode builds a Directory from the encoded tables. A malformed entry is a
// data defect and is reported with the offending province code.
func Decode(t Tables) (*Directory, error) {
	d := &Directory{
		labels: make(map[string]string, len(t.Provinces)),
		cities: make(map[string][]domain.City, len(t.Cities)),
	}
	for code, label := range t.Provinces {
		d.labels[code] = label
	}

	for _, provCode := range sortedKeys(t.Cities) {
		cities, err := decodeCities(provCode, t.Cities[provCode])
		if err != nil {
			return nil, err
		}
		d.cities[provCode] = cities
	}

	for _, provCode := range sortedKeys(t.Districts) {
		cities, ok := d.cities[provCode]
		if !ok {
			continue
		}
		direct := isDirect(provCode, cities)

		for _, group := range t.Districts[provCode] {
			districts, err := decodeGroup(provCode, group)
			if err != nil {
				return nil, err
			}

			if direct {
				for i := range districts {
					districts[i].CityCode = provCode
				}
				cities[0].Districts = append(cities[0].Districts, districts...)
				continue
			}

			owner := districts[0].CityCode
			idx := indexOfCity(cities, owner)
			if idx < 0 {
				d.unmatched = append(d.unmatched, UnmatchedGroup{
					ProvinceCode: provCode,
					OwnerCode:    owner,
					Size:         len(districts),
				})
				continue
			}
			cities[idx].Districts = append(cities[idx].Districts, districts...)
		}
	}

	return d, nil
}

// MustDecode is Decode for tables compiled into the binary.
func MustDecode(t Tables) *Directory {
	d, err := Decode(t)
	if err != nil {
		panic(err)
	}
	return d
}

// isDirectCityString reports the self-referencing single-city encoding
// "<code>-<letter> <name>-<code>".
func isDirectCityString(provCode, s string) bool {
	if strings.Contains(s, "|") {
		return false
	}
	parts := strings.Split(s, "-")
	return len(parts) == 3 && parts[2] == provCode
}

func decodeCities(provCode, s string) ([]domain.City, error) {
	if isDirectCityString(provCode, s) {
		c, err := parseCity(s)
		if err != nil {
			return nil, fmt.Errorf("province %s: %w", provCode, err)
		}
		c.Code = provCode
		return []domain.City{c}, nil
	}

	chunks := strings.Split(s, "|")
	cities := make([]domain.City, 0, len(chunks))
	for _, chunk := range chunks {
		c, err := parseCity(chunk)
		if err != nil {
			return nil, fmt.Errorf("province %s: %w", provCode, err)
		}
		cities = append(cities, c)
	}
	return cities, nil
}

func decodeGroup(provCode, group string) ([]domain.District, error) {
	members := strings.Split(group, "|")
	districts := make([]domain.District, 0, len(members))
	for _, m := range members {
		dist, err := parseDistrict(m)
		if err != nil {
			return nil, fmt.Errorf("province %s: %w", provCode, err)
		}
		districts = append(districts, dist)
	}
	return districts, nil
}

// parseCity reads "<code>-<letter> <name>", ignoring any trailing segment.
func parseCity(s string) (domain.City, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 2 || parts[0] == "" {
		return domain.City{}, fmt.Errorf("malformed city %q", s)
	}
	letter, name, err := parseLetterName(parts[1])
	if err != nil {
		return domain.City{}, fmt.Errorf("malformed city %q: %w", s, err)
	}
	return domain.City{Code: parts[0], Letter: letter, Name: name, Districts: []domain.District{}}, nil
}

// parseDistrict reads "<code>-<letter> <name>-<ownerCityCode>".
func parseDistrict(s string) (domain.District, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return domain.District{}, fmt.Errorf("malformed district %q", s)
	}
	letter, name, err := parseLetterName(parts[1])
	if err != nil {
		return domain.District{}, fmt.Errorf("malformed district %q: %w", s, err)
	}
	return domain.District{Code: parts[0], Letter: letter, Name: name, CityCode: parts[2]}, nil
}

func parseLetterName(s string) (letter, name string, err error) {
	letter, name, ok := strings.Cut(s, " ")
	if !ok || letter == "" || name == "" {
		return "", "", fmt.Errorf("expected \"<letter> <name>\", got %q", s)
	}
	return letter, name, nil
}

func isDirect(provCode string, cities []domain.City) bool {
	return len(cities) == 1 && cities[0].Code == provCode
}

func indexOfCity(cities []domain.City, code string) int {
	for i := range cities {
		if cities[i].Code == code {
			return i
		}
	}
	return -1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
