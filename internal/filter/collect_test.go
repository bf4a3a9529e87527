package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_WithoutPreloads(t *testing.T) {
	plan, err := testPlanner(t, MySQL).Plan("users",
		FilterQuery{SortBy: []string{"meta.rank"}, Sort: []SortDirection{SortAsc}}, QueryOptions{AppID: true}, "app-1")
	require.NoError(t, err)

	c, err := plan.NewCollector([]string{"id", "status", "meta", "created_at", "_sort_0"})
	require.NoError(t, err)

	require.NoError(t, c.Add([]interface{}{[]byte("1"), []byte("active"), []byte(`{"rank":"3"}`), []byte("2024-01-02 10:00:00"), []byte("3")}))
	require.NoError(t, c.Add([]interface{}{int64(2), "banned", nil, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "1"}))

	records := c.Records()
	require.Len(t, records, 2)

	assert.Equal(t, int64(1), records[0]["id"])
	assert.Equal(t, "active", records[0]["status"])
	assert.Equal(t, json.RawMessage(`{"rank":"3"}`), records[0]["meta"])
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), records[0]["created_at"])
	assert.NotContains(t, records[0], "_sort_0")

	assert.Equal(t, int64(2), records[1]["id"])
	assert.Nil(t, records[1]["meta"])
}

func TestCollector_Preloads(t *testing.T) {
	plan, err := testPlanner(t, MySQL).Plan("users", FilterQuery{},
		QueryOptions{AppID: true, Preload: []string{"profiles", "roles"}}, "app-1")
	require.NoError(t, err)

	c, err := plan.NewCollector([]string{"id", "status", "profiles__id", "profiles__first_name", "roles__id", "roles__name"})
	require.NoError(t, err)

	rows := [][]interface{}{
		{int64(1), "active", int64(10), "Ada", int64(100), "admin"},
		{int64(1), "active", int64(10), "Ada", int64(101), "auditor"},
		{int64(1), "active", int64(11), "Grace", int64(100), "admin"},
		{int64(1), "active", int64(11), "Grace", int64(101), "auditor"},
		{int64(2), "active", nil, nil, nil, nil},
	}
	for _, row := range rows {
		require.NoError(t, c.Add(row))
	}

	records := c.Records()
	require.Len(t, records, 2)

	profiles := records[0]["profiles"].([]Record)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Ada", profiles[0]["first_name"])
	assert.Equal(t, "Grace", profiles[1]["first_name"])
	assert.Len(t, records[0]["roles"].([]Record), 2)

	assert.Equal(t, []Record{}, records[1]["profiles"])
	assert.Equal(t, []Record{}, records[1]["roles"])
}

func TestCollector_BelongsTo(t *testing.T) {
	plan, err := testPlanner(t, MySQL).Plan("profiles", FilterQuery{},
		QueryOptions{ParentTable: "user", Preload: []string{"user"}}, "app-1")
	require.NoError(t, err)

	c, err := plan.NewCollector([]string{"id", "first_name", "user__id", "user__status"})
	require.NoError(t, err)
	require.NoError(t, c.Add([]interface{}{int64(10), "Ada", int64(1), "active"}))
	require.NoError(t, c.Add([]interface{}{int64(11), "Grace", nil, nil}))

	records := c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": int64(1), "status": "active"}, records[0]["user"])
	assert.Nil(t, records[1]["user"])

	var decoded []struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		User      *struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	result := &Result{Data: records}
	require.NoError(t, result.Decode(&decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(1), decoded[0].User.ID)
	assert.Nil(t, decoded[1].User)
}

func TestCollector_Errors(t *testing.T) {
	plan, err := testPlanner(t, MySQL).Plan("users", FilterQuery{}, QueryOptions{AppID: true}, "app-1")
	require.NoError(t, err)

	_, err = plan.NewCollector([]string{"id", "friends__id"})
	assert.Error(t, err)

	c, err := plan.NewCollector([]string{"id"})
	require.NoError(t, err)
	assert.Error(t, c.Add([]interface{}{int64(1), "extra"}))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		column   Column
		value    interface{}
		expected interface{}
	}{
		{name: "bool from int", column: Column{Type: Boolean}, value: int64(1), expected: true},
		{name: "bool from bit", column: Column{Type: Boolean}, value: []byte{0}, expected: false},
		{name: "bool from text", column: Column{Type: Boolean}, value: []byte("true"), expected: true},
		{name: "int from text", column: Column{Type: Integer}, value: "42", expected: int64(42)},
		{name: "text from bytes", column: Column{Type: Text}, value: []byte("hi"), expected: "hi"},
		{name: "json from text", column: Column{Type: JSON}, value: `{"a":1}`, expected: json.RawMessage(`{"a":1}`)},
		{name: "nil", column: Column{Type: Integer}, value: nil, expected: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.column, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := normalize(Column{Type: Integer}, []byte("abc"))
	assert.Error(t, err)
}
