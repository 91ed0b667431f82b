package hdm

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/hdm-plugin/testutil"
)

// rayPathHeader is a realistic export schema: per-path metadata, a list of
// interaction records gated by kind, and a complex-valued field sample.
const rayPathHeader = `{
	'message': {'type': 'ray_path', 'solver': 'sbr', 'version': 2},
	'types': {
		'ray_path': {'type': 'object', 'layout': [
			{'name': 'path_id', 'type': 'u4'},
			{'name': 'flags', 'type': 'path_flags'},
			{'name': 'n_interactions', 'type': 'u1'},
			{'name': 'interactions', 'type': 'interaction_list'},
			{'name': 'field', 'type': 'c16', 'optional': ('flags', 'has_field')},
		]},
		'interaction_list': {'type': 'list', 'base': 'interaction', 'size': 'n_interactions'},
		'interaction': {'type': 'object', 'layout': [
			{'name': 'kind', 'type': 'interaction_kind'},
			{'name': 'point', 'type': 'f64_xyz'},
			{'name': 'surface_id', 'type': 'u2', 'optional': ('kind', 'reflection')},
		]},
		'interaction_kind': {'type': 'enum', 'bytes': 1, 'values': ['launch', 'reflection', 'diffraction']},
		'path_flags': {'type': 'flag', 'bytes': 1, 'values': ['has_field', 'escaped']},
		'f64_xyz': {'type': 'float', 'bytes': 8, 'count': 3},
		'u1': {'type': 'int', 'bytes': 1, 'signed': False},
		'u2': {'type': 'int', 'bytes': 2, 'signed': False},
		'u4': {'type': 'int', 'bytes': 4, 'signed': False},
		'c16': {'type': 'complex', 'bytes': 16},
	},
}`

func buildRayPathFile(t *testing.T) []byte {
	t.Helper()
	return buildFile(t, rayPathHeader,
		uint32(7),   // path_id
		uint8(0b01), // flags: has_field set, escaped clear
		uint8(2),    // n_interactions
		// interaction 0: launch at the antenna, no surface_id
		uint8(0),
		float64(0.0), float64(0.0), float64(1.5),
		// interaction 1: reflection off surface 12
		uint8(1),
		float64(3.0), float64(-4.0), float64(2.25),
		uint16(12),
		// field sample, present because has_field is set
		float64(0.5), float64(-0.125),
	)
}

func TestDecodeRayPath(t *testing.T) {
	records, err := DecodeAll(buildRayPathFile(t))
	require.NoError(t, err)
	require.Len(t, records, 1)

	expected := map[string]any{
		"path_id":        int64(7),
		"flags":          map[string]bool{"has_field": true, "escaped": false},
		"n_interactions": int64(2),
		"interactions": []any{
			map[string]any{
				"kind":       map[string]any{"name": "launch", "value": int64(0)},
				"point":      []float64{0.0, 0.0, 1.5},
				"surface_id": nil,
			},
			map[string]any{
				"kind":       map[string]any{"name": "reflection", "value": int64(1)},
				"point":      []float64{3.0, -4.0, 2.25},
				"surface_id": int64(12),
			},
		},
		"field": map[string]any{"real": 0.5, "imag": -0.125},
	}

	if diff := cmp.Diff(expected, records[0], testutil.NumericComparer); diff != "" {
		t.Errorf("decoded record mismatch (-want +got):\n%s", diff)
	}
}

func TestRayPathJSONRoundTrip(t *testing.T) {
	data := buildRayPathFile(t)

	records, err := DecodeAll(data)
	require.NoError(t, err)

	jsonData, err := SerializeToJSON(data)
	require.NoError(t, err)

	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(jsonData, &fromJSON))
	require.Len(t, fromJSON, 1)

	// JSON turns int64 into float64 and typed slices into []any; the
	// numeric comparer bridges exactly that gap.
	if diff := cmp.Diff(records[0]["path_id"], fromJSON[0]["path_id"], testutil.NumericComparer); diff != "" {
		t.Errorf("path_id mismatch (-want +got):\n%s", diff)
	}
	field, ok := fromJSON[0]["field"].(map[string]any)
	require.True(t, ok)
	if diff := cmp.Diff(records[0]["field"], field, testutil.NumericComparer); diff != "" {
		t.Errorf("field mismatch (-want +got):\n%s", diff)
	}
}
