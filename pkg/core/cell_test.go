package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellValue_ZeroIsDefault(t *testing.T) {
	var v CellValue
	assert.True(t, v.IsDefault())
	assert.False(t, v.IsNull())
	assert.Equal(t, "DEFAULT", v.Display())
}

func TestCellValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b CellValue
		want bool
	}{
		{"same concrete", Concrete("x"), Concrete("x"), true},
		{"different concrete", Concrete("x"), Concrete("y"), false},
		{"null vs default", Null(), Default(), false},
		{"null vs null", Null(), Null(), true},
		{"concrete empty vs default", Concrete(""), Default(), false},
		{"lob same payload", Lob(LobHex, "ab"), Lob(LobHex, "ab"), true},
		{"lob different origin", Lob(LobHex, "ab"), Lob(LobInlineText, "ab"), false},
		{"lob vs concrete", Lob(LobInlineText, "ab"), Concrete("ab"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestLob_PreviewIsNotAuthoritative(t *testing.T) {
	a := Lob(LobHex, "deadbeef")
	b := a
	b.lob.Preview = "something else"

	assert.True(t, a.Equal(b))
	ref, ok := a.LobRef()
	require.True(t, ok)
	assert.Equal(t, "(BLOB 4 bytes)", ref.Preview)
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    CellValue
		wantErr bool
	}{
		{"nil is null", nil, Null(), false},
		{"null literal", "$null", Null(), false},
		{"default literal", "$DEFAULT", Default(), false},
		{"string", "hello", Concrete("hello"), false},
		{"int", 42, Concrete("42"), false},
		{"bool", true, Concrete("true"), false},
		{"hex lob", map[string]any{"hex": "0xDEADBEEF"}, Lob(LobHex, "deadbeef"), false},
		{"upload lob", map[string]any{"upload": "tok-1"}, Lob(LobUpload, "tok-1"), false},
		{"text lob", map[string]any{"text": "long"}, Lob(LobInlineText, "long"), false},
		{"bad hex", map[string]any{"hex": "zz"}, CellValue{}, true},
		{"two keys", map[string]any{"hex": "aa", "text": "b"}, CellValue{}, true},
		{"unknown origin", map[string]any{"url": "x"}, CellValue{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCell(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s (%s)", got.Display(), got.Tag())
		})
	}
}

func TestRow_IsEmpty(t *testing.T) {
	assert.True(t, NewRow(nil).IsEmpty())
	assert.True(t, NewRow(map[string]CellValue{"a": Default(), "b": Default()}).IsEmpty())
	assert.False(t, NewRow(map[string]CellValue{"a": Default(), "b": Null()}).IsEmpty())
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := NewRow(map[string]CellValue{"a": Concrete("1")})
	c := r.Clone()
	c.Set("a", Concrete("2"))

	assert.Equal(t, "1", r.Cell("a").Display())
	assert.Equal(t, "2", c.Cell("a").Display())
}
