package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects output to buffers with colours disabled.
func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevNoColor := Out, ErrOut, color.NoColor
	Out, ErrOut, color.NoColor = &out, &errOut, true
	t.Cleanup(func() {
		Out, ErrOut, color.NoColor = prevOut, prevErr, prevNoColor
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("single suggestion printed as is", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Invalid minimum area", "The minimum lot area must be at least 50.", []string{"Use --min-area 50 or more"})
		require.Error(t, err)
		assert.Contains(t, errOut.String(), "Invalid minimum area\n\n")
		assert.Contains(t, errOut.String(), "Use --min-area 50 or more\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		_ = Error("Test Error", "Explanation", []string{"First option", "Second option"})
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	ctx := map[string]string{
		"File":     "parcel.geojson",
		"Backend":  "redis",
		"Min area": "150",
	}
	err := ErrorWithContext("History unavailable", "", ctx, nil)
	require.Equal(t, "History unavailable", err.Error())

	s := errOut.String()
	assert.Less(t, strings.Index(s, "Backend"), strings.Index(s, "File"))
	assert.Less(t, strings.Index(s, "File"), strings.Index(s, "Min area"))
}

func TestSuccessAndWarning(t *testing.T) {
	out, errOut := capture(t)

	Success("Generated %d lots\n", 4)
	Success("✓ already marked\n")
	Warning("no CRS in file\n")

	assert.Equal(t, "✓ Generated 4 lots\n✓ already marked\n", out.String())
	assert.Equal(t, "⚠️  no CRS in file\n", errOut.String())
}
