package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvrpSample = `NAME : toy-cvrp
TYPE : CVRP
DIMENSION : 3
CAPACITY : 10
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1 0 0
2 3 0
3 0 4
DEMAND_SECTION
1 0
2 4
3 5
DEPOT_SECTION
1
-1
EOF
`

const vrptwSample = `NAME : toy-vrptw
DIMENSION : 3
CAPACITY : 20
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1 0 0
2 5 0
3 0 5
DEMAND_SECTION
1 0
2 3
3 3
DEPOT_SECTION
1
-1
TIME_WINDOW_SECTION
1 0 100 0
2 10 20 5
3 30 3 40
EOF
`

func TestParseCVRPInstance(t *testing.T) {
	inst, err := Parse(strings.NewReader(cvrpSample), CVRP)
	require.NoError(t, err)

	assert.Equal(t, "toy-cvrp", inst.Name)
	assert.Equal(t, 3, inst.Dimension)
	assert.Equal(t, 10, inst.Capacity)
	assert.Equal(t, 0, inst.DepotIndex)
	assert.Equal(t, []int{0, 4, 5}, inst.Demands)
	assert.InDelta(t, 3.0, inst.Distance(0, 1), 1e-9)
	assert.InDelta(t, 5.0, inst.Distance(1, 2), 1e-9)
	assert.Nil(t, inst.Windows)
	assert.Equal(t, 2, inst.NumCustomers())
}

func TestParseVRPTWInstanceReadsWindows(t *testing.T) {
	inst, err := Parse(strings.NewReader(vrptwSample), VRPTW)
	require.NoError(t, err)

	require.Len(t, inst.Windows, 3)
	assert.Equal(t, Window{Start: 10, End: 20, Service: 5}, inst.Windows[1])
	assert.Equal(t, Window{Start: 30, End: 3, Service: 40}, inst.Windows[2])
}

func TestParseRejectsUnsupportedEdgeWeightType(t *testing.T) {
	bad := strings.Replace(cvrpSample, "EUC_2D", "GEO", 1)
	_, err := Parse(strings.NewReader(bad), CVRP)
	assert.Error(t, err)
}

func TestParseVRPTWRequiresTimeWindowSection(t *testing.T) {
	_, err := Parse(strings.NewReader(cvrpSample), VRPTW)
	assert.Error(t, err)
}

func TestParseRejectsOutOfRangeIndex(t *testing.T) {
	bad := strings.Replace(cvrpSample, "3 0 4", "9 0 4", 1)
	_, err := Parse(strings.NewReader(bad), CVRP)
	assert.Error(t, err)
}

func TestParseFileMissingReturnsError(t *testing.T) {
	_, err := ParseFile("/nonexistent/path/to/instance.vrp", CVRP)
	assert.Error(t, err)
}
