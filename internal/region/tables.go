package region

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/weather-history-service/internal/observability"
	"gopkg.in/yaml.v3"
)

//go:embed data/regions.yaml
var embeddedTables []byte

// ParseTables reads YAML-encoded region tables.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parse region tables: %w", err)
	}
	if len(t.Provinces) == 0 {
		return Tables{}, fmt.Errorf("parse region tables: no provinces")
	}
	return t, nil
}

// Load decodes the tables at path, or the embedded tables when path is
// empty. Discarded district groups are logged and counted.
func Load(path string, logger *slog.Logger, metrics *observability.Metrics) (*Directory, error) {
	data := embeddedTables
	source := "embedded"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read region tables: %w", err)
		}
		data = b
		source = path
	}

	tables, err := ParseTables(data)
	if err != nil {
		return nil, err
	}
	dir, err := Decode(tables)
	if err != nil {
		return nil, fmt.Errorf("decode region tables: %w", err)
	}

	for _, g := range dir.UnmatchedGroups() {
		logger.Warn("district group has no matching city, discarded",
			"province", g.ProvinceCode,
			"owner_city", g.OwnerCode,
			"districts", g.Size,
		)
		metrics.RegionUnmatchedGroups.Inc()
	}

	logger.Info("region tables loaded",
		"source", source,
		"provinces", len(tables.Provinces),
		"unmatched_groups", len(dir.UnmatchedGroups()),
	)
	return dir, nil
}
