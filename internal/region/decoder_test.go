package region

import (
	"testing"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_DirectCityScenario(t *testing.T) {
	dir, err := Decode(Tables{
		Provinces: map[string]string{"11": "B 北京"},
		Cities:    map[string]string{"11": "11-B 北京"},
		Districts: map[string][]string{"11": {"10-A 朝阳-11"}},
	})
	require.NoError(t, err)

	label, ok := dir.ProvinceLabel("11")
	require.True(t, ok)
	assert.Equal(t, "B 北京", label)

	want := []domain.City{{
		Code:   "11",
		Letter: "B",
		Name:   "北京",
		Districts: []domain.District{
			{Code: "10", Letter: "A", Name: "朝阳", CityCode: "11"},
		},
	}}
	if diff := cmp.Diff(want, dir.Cities("11")); diff != "" {
		t.Errorf("cities mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_DirectCityForcesCityCode(t *testing.T) {
	dir, err := Decode(Tables{
		Provinces: map[string]string{"12": "B 北京"},
		Cities:    map[string]string{"12": "54511-B 北京-12"},
		Districts: map[string][]string{"12": {
			"54511-B 北京-54511|54514-F 丰台-54511",
			"54416-M 密云-99999",
		}},
	})
	require.NoError(t, err)

	cities := dir.Cities("12")
	require.Len(t, cities, 1)
	assert.Equal(t, "12", cities[0].Code)
	require.Len(t, cities[0].Districts, 3)
	for _, d := range cities[0].Districts {
		assert.Equal(t, "12", d.CityCode, d.Name)
	}
	assert.Empty(t, dir.UnmatchedGroups())
	assert.True(t, dir.IsDirectCity("12"))
}

func TestDecode_MultiCityPreservesOrder(t *testing.T) {
	dir, err := Decode(Tables{
		Provinces: map[string]string{"22": "J 江西"},
		Cities:    map[string]string{"22": "58606-N 南昌|57799-J 吉安|58502-J 九江"},
		Districts: map[string][]string{"22": {
			"58502-J 九江-58502",
			"58606-N 南昌-58606|70463-A 安义-58606|70464-J 进贤-58606",
			"57793-J 井冈山-57799",
		}},
	})
	require.NoError(t, err)

	cities := dir.Cities("22")
	require.Len(t, cities, 3)
	assert.Equal(t, []string{"58606", "57799", "58502"}, cityCodes(cities))

	assert.Equal(t, []string{"58606", "70463", "70464"}, districtCodes(cities[0].Districts))
	assert.Equal(t, []string{"57793"}, districtCodes(cities[1].Districts))
	assert.Equal(t, []string{"58502"}, districtCodes(cities[2].Districts))
	assert.False(t, dir.IsDirectCity("22"))
}

func TestDecode_UnmatchedGroupDiscarded(t *testing.T) {
	dir, err := Decode(Tables{
		Provinces: map[string]string{"22": "J 江西"},
		Cities:    map[string]string{"22": "58606-N 南昌|57799-J 吉安"},
		Districts: map[string][]string{"22": {
			"11111-X 某地-00000|22222-Y 某县-58606",
			"70463-A 安义-58606",
		}},
	})
	require.NoError(t, err)

	// Owner is decided by the first member only, so the whole group is dropped.
	assert.Equal(t, []string{"70463"}, districtCodes(dir.Cities("22")[0].Districts))
	assert.Equal(t, []UnmatchedGroup{{ProvinceCode: "22", OwnerCode: "00000", Size: 2}}, dir.UnmatchedGroups())
}

func TestDecode_DistrictsWithoutProvinceIgnored(t *testing.T) {
	dir, err := Decode(Tables{
		Provinces: map[string]string{"22": "J 江西"},
		Cities:    map[string]string{"22": "58606-N 南昌"},
		Districts: map[string][]string{"99": {"1-A 甲-2"}},
	})
	require.NoError(t, err)
	assert.Nil(t, dir.Cities("99"))
	assert.Empty(t, dir.UnmatchedGroups())
}

func TestDecode_EveryDistrictUnderExactlyOneCity(t *testing.T) {
	tables, err := ParseTables(embeddedTables)
	require.NoError(t, err)
	dir, err := Decode(tables)
	require.NoError(t, err)

	seen := make(map[string]string)
	for prov := range tables.Cities {
		for _, c := range dir.Cities(prov) {
			for _, d := range c.Districts {
				key := prov + "/" + d.Code
				_, dup := seen[key]
				assert.False(t, dup, "district %s listed twice", key)
				seen[key] = c.Code
				assert.Equal(t, c.Code, d.CityCode)
			}
		}
	}
	assert.NotEmpty(t, seen)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		tables Tables
	}{
		{
			name:   "city without letter",
			tables: Tables{Cities: map[string]string{"22": "58606-南昌"}},
		},
		{
			name:   "city without dash",
			tables: Tables{Cities: map[string]string{"22": "58606"}},
		},
		{
			name: "district missing owner",
			tables: Tables{
				Cities:    map[string]string{"22": "58606-N 南昌"},
				Districts: map[string][]string{"22": {"70463-A 安义"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tables)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "province 22")
			assert.Panics(t, func() { MustDecode(tt.tables) })
		})
	}
}

func cityCodes(cities []domain.City) []string {
	out := make([]string, len(cities))
	for i, c := range cities {
		out[i] = c.Code
	}
	return out
}

func districtCodes(ds []domain.District) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}
