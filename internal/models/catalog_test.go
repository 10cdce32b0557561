package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestUnitTotalPrice(t *testing.T) {
	tests := []struct {
		name     string
		sqm      float64
		price    int64
		expected int64
	}{
		{"whole", 120, 25000, 3000000},
		{"fractional area floors", 85.5, 1001, 85585},
		{"rounding down near integer", 0.3, 10, 3},
		{"small", 1.99, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := Unit{Sqm: tt.sqm, PricePerSqm: tt.price}
			assert.Equal(t, tt.expected, u.TotalPrice())
		})
	}
}

func TestDecodeListFallsBackToEmpty(t *testing.T) {
	list, err := DecodeList(nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{}, list)

	list, err = DecodeList(datatypes.JSON("null"))
	assert.NoError(t, err)
	assert.Equal(t, []string{}, list)

	list, err = DecodeList(datatypes.JSON("not json"))
	assert.Error(t, err)
	assert.Equal(t, []string{}, list)

	list, err = DecodeList(datatypes.JSON(`["pool","gym"]`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"pool", "gym"}, list)
}

func TestDecodeMapFallsBackToEmpty(t *testing.T) {
	m, err := DecodeMap(datatypes.JSON(`[1,2]`))
	assert.Error(t, err)
	assert.Equal(t, map[string]any{}, m)

	m, err = DecodeMap(datatypes.JSON(`{"view":"sea"}`))
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"view": "sea"}, m)
}

func TestEncodeNilValues(t *testing.T) {
	assert.Equal(t, datatypes.JSON("[]"), EncodeList(nil))

	m, err := EncodeMap(nil)
	require.NoError(t, err)
	assert.Equal(t, datatypes.JSON("{}"), m)
}

func TestStringListAcceptsArrayOrString(t *testing.T) {
	var req ProjectCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"features":["pool","gym"]}`), &req))
	assert.Equal(t, StringList{"pool", "gym"}, req.Features)

	req = ProjectCreateRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"features":"[\"pool\",\"gym\"]"}`), &req))
	assert.Equal(t, StringList{"pool", "gym"}, req.Features)

	req = ProjectCreateRequest{}
	err := json.Unmarshal([]byte(`{"features":"pool, gym"}`), &req)
	assert.Error(t, err)

	req = ProjectCreateRequest{}
	err = json.Unmarshal([]byte(`{"features":{"a":1}}`), &req)
	assert.Error(t, err)
}

func TestJSONObjectAcceptsObjectOrString(t *testing.T) {
	var req UnitCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":{"view":"sea"}}`), &req))
	assert.Equal(t, JSONObject{"view": "sea"}, req.Metadata)

	req = UnitCreateRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":"{\"view\":\"garden\"}"}`), &req))
	assert.Equal(t, JSONObject{"view": "garden"}, req.Metadata)

	req = UnitCreateRequest{}
	assert.Error(t, json.Unmarshal([]byte(`{"metadata":"garden"}`), &req))
}

func TestLooseStringAcceptsNumbers(t *testing.T) {
	var req UnitCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"code":101,"floor":"3"}`), &req))
	assert.Equal(t, LooseString("101"), req.Code)
	assert.Equal(t, LooseString("3"), req.Floor)

	req = UnitCreateRequest{}
	assert.Error(t, json.Unmarshal([]byte(`{"floor":[3]}`), &req))
}

func TestApplyFormDecodesJSONFields(t *testing.T) {
	form := map[string]string{
		"amenities": `["balcony"]`,
		"metadata":  `{"corner":true}`,
	}
	lookup := func(key string) (string, bool) {
		v, ok := form[key]
		return v, ok
	}

	var create UnitCreateRequest
	require.NoError(t, create.ApplyForm(lookup))
	assert.Equal(t, StringList{"balcony"}, create.Amenities)
	assert.Equal(t, JSONObject{"corner": true}, create.Metadata)

	var update UnitUpdateRequest
	require.NoError(t, update.ApplyForm(lookup))
	require.NotNil(t, update.Amenities)
	assert.Equal(t, StringList{"balcony"}, *update.Amenities)

	var project ProjectUpdateRequest
	require.NoError(t, project.ApplyForm(lookup))
	assert.Nil(t, project.Features)

	form["features"] = "not json"
	assert.Error(t, project.ApplyForm(lookup))
}
