package overpass

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/expansion-cli/internal/model"
)

func TestBuildQuery(t *testing.T) {
	q := buildQuery(52.37, 4.89, 1000, categorySelectors[model.AnchorTransport])

	assert.True(t, strings.HasPrefix(q, "[out:json];"))
	assert.Contains(t, q, `node["railway"="station"](around:1000,52.370000,4.890000);`)
	assert.Contains(t, q, `way["railway"="station"](around:1000,52.370000,4.890000);`)
	assert.Contains(t, q, `["highway"="bus_stop"]`)
	assert.Contains(t, q, "out body;")
}

func TestCategorySelectorsCoverAllCategories(t *testing.T) {
	for _, cat := range model.AnchorCategories {
		sels, ok := categorySelectors[cat]
		assert.True(t, ok, "missing selectors for %s", cat)
		assert.NotEmpty(t, sels)
	}
}
