package client

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func recordsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"_id":"r%d","regNo":"KA%02d"}`, i, i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestNormalize_Envelope(t *testing.T) {
	raw := `{"items":` + recordsJSON(3) + `,"total":23,"page":3,"limit":10}`
	got := Normalize([]byte(raw), 3, 10)

	assert.Len(t, got.Items, 3)
	assert.Equal(t, 23, got.Total)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 10, got.PageSize)
	assert.Equal(t, "r0", got.Items[0].ID)
}

func TestNormalize_EnvelopeFillsMissingFromRequest(t *testing.T) {
	got := Normalize([]byte(`{"items":`+recordsJSON(2)+`,"total":2}`), 1, 25)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 25, got.PageSize)
	assert.Equal(t, 2, got.Total)
}

func TestNormalize_BareArray(t *testing.T) {
	got := Normalize([]byte(recordsJSON(7)), 4, 10)

	assert.Len(t, got.Items, 7)
	assert.Equal(t, 7, got.Total)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 7, got.PageSize)
}

func TestNormalize_EnforcesInvariants(t *testing.T) {
	t.Run("items never exceed page size", func(t *testing.T) {
		got := Normalize([]byte(`{"items":`+recordsJSON(12)+`,"total":40,"page":1,"limit":10}`), 1, 10)
		assert.Len(t, got.Items, 10)
	})
	t.Run("zero total means no items", func(t *testing.T) {
		got := Normalize([]byte(`{"items":`+recordsJSON(2)+`,"total":0,"page":1,"limit":10}`), 1, 10)
		assert.Empty(t, got.Items)
		assert.Zero(t, got.Total)
	})
}

func TestNormalize_OtherShapesAreEmpty(t *testing.T) {
	for _, raw := range []string{
		``,
		`null`,
		`"ok"`,
		`42`,
		`{"data":[]}`,
		`{"items":"nope"}`,
		`[{"_id":`,
		`<html>502</html>`,
	} {
		got := Normalize([]byte(raw), 2, 25)
		assert.NotNil(t, got.Items, raw)
		assert.Empty(t, got.Items, raw)
		assert.Zero(t, got.Total, raw)
		assert.Equal(t, 1, got.Page, raw)
	}
}
