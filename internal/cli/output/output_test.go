package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeText, false},
		{"text", ModeText, false},
		{"json", ModeJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "valid: text, json")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_PlainWriterHasNoColor(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Println(r.Styles().Success.Render("applied"))
	r.Warnf("skipped %d", 2)

	assert.Equal(t, "applied\n", out.String())
	assert.Equal(t, "skipped 2\n", errOut.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", out.String())
	assert.Equal(t, ModeJSON, r.Mode())
}
