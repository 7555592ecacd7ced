package region

import (
	"errors"
	"slices"
	"strings"

	"github.com/couchcryptid/weather-history-service/internal/domain"
)

// ErrUnknownRegion is returned by lookups that name a code not in the directory.
var ErrUnknownRegion = errors.New("unknown region")

// Directory is the decoded, read-only region hierarchy.
type Directory struct {
	labels    map[string]string
	cities    map[string][]domain.City
	unmatched []UnmatchedGroup
}

// ProvinceLabel returns the raw "<letter> <name>" label of a province.
func (d *Directory) ProvinceLabel(code string) (string, bool) {
	l, ok := d.labels[code]
	return l, ok
}

// Provinces lists every labelled province ordered by code.
func (d *Directory) Provinces() []domain.Province {
	out := make([]domain.Province, 0, len(d.labels))
	for _, code := range sortedKeys(d.labels) {
		letter, name, _ := strings.Cut(d.labels[code], " ")
		out = append(out, domain.Province{Code: code, Letter: letter, Name: name})
	}
	return out
}

// Cities returns a copy of a province's cities in table order, or nil when
// unknown.
func (d *Directory) Cities(provCode string) []domain.City {
	out := slices.Clone(d.cities[provCode])
	for i := range out {
		out[i].Districts = slices.Clone(out[i].Districts)
	}
	return out
}

// IsDirectCity reports whether the province is a direct-administered
// municipality: a single city carrying the province's own code.
func (d *Directory) IsDirectCity(provCode string) bool {
	return isDirect(provCode, d.cities[provCode])
}

// Districts returns a copy of a city's districts. For direct-administered
// municipalities the city code is ignored.
func (d *Directory) Districts(provCode, cityCode string) []domain.District {
	cities := d.cities[provCode]
	if isDirect(provCode, cities) {
		return slices.Clone(cities[0].Districts)
	}
	if i := indexOfCity(cities, cityCode); i >= 0 {
		return slices.Clone(cities[i].Districts)
	}
	return nil
}

// RegionNames resolves a (province, city, district) triple to display names.
// Direct-administered municipalities repeat the province name at city level.
func (d *Directory) RegionNames(provCode, cityCode, districtCode string) ([]string, bool) {
	_, provName, _ := strings.Cut(d.labels[provCode], " ")
	if provName == "" {
		return nil, false
	}

	cities := d.cities[provCode]
	cityName := provName
	var districts []domain.District
	if isDirect(provCode, cities) {
		districts = cities[0].Districts
	} else {
		i := indexOfCity(cities, cityCode)
		if i < 0 {
			return nil, false
		}
		cityName = cities[i].Name
		districts = cities[i].Districts
	}

	for _, dist := range districts {
		if dist.Code == districtCode {
			return []string{provName, cityName, dist.Name}, true
		}
	}
	return nil, false
}

// UnmatchedGroups lists district groups discarded during decoding.
func (d *Directory) UnmatchedGroups() []UnmatchedGroup {
	return slices.Clone(d.unmatched)
}
