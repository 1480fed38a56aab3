package clipstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats_Lookup(t *testing.T) {
	f := newFormats(3)
	f.add(Format{Name: "UTF8_STRING", ID: 275})
	f.add(Format{Name: "text/html", ID: 314})

	assert.Equal(t, 2, f.Len())
	assert.True(t, f.Contains("text/html"))
	assert.False(t, f.Contains("image/png"))
	assert.True(t, f.ContainsID(275))
	assert.False(t, f.ContainsID(1))

	ft, ok := f.Lookup("UTF8_STRING")
	require.True(t, ok)
	assert.Equal(t, uint32(275), ft.ID)

	assert.Equal(t, []string{"UTF8_STRING", "text/html"}, f.Names())
}

func TestFormats_AllIsACopy(t *testing.T) {
	f := newFormats(1)
	f.add(Format{Name: "CF_UNICODETEXT", ID: 13})

	all := f.All()
	all[0].Name = "mutated"

	assert.True(t, f.Contains("CF_UNICODETEXT"), "callers cannot mutate the catalog")
}
