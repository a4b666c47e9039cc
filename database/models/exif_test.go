package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExif_ValueStripsNUL(t *testing.T) {
	e := Exif{
		"Make":        "Canon\x00\x00",
		"Maker\x00":   "x",
		"UserComment": []any{"a\x00b", 3.5, []any{"\x00nested"}},
		"Sub":         map[string]any{"k": "v\x00"},
		"Tags":        []string{"one\x00"},
	}

	v, err := e.Value()
	require.NoError(t, err)

	s, ok := v.(string)
	require.True(t, ok)
	assert.NotContains(t, s, `\u0000`)
	assert.NotContains(t, s, "\x00")
	assert.True(t, strings.Contains(s, `"Make":"Canon"`))
	assert.True(t, strings.Contains(s, `"Maker":"x"`))

	// 原 map 不应被修改
	assert.Equal(t, "Canon\x00\x00", e["Make"])
}

func TestExif_NilEncodesAsEmptyObject(t *testing.T) {
	var e Exif
	v, err := e.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestExif_Scan(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Exif
	}{
		{"bytes", []byte(`{"Make":"Canon","ISOSpeedRatings":100}`), Exif{"Make": "Canon", "ISOSpeedRatings": float64(100)}},
		{"string", `{"Model":"EOS R5"}`, Exif{"Model": "EOS R5"}},
		{"nil", nil, Exif{}},
		{"empty", []byte{}, Exif{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Exif
			require.NoError(t, e.Scan(tt.input))
			assert.Equal(t, tt.want, e)
		})
	}

	var e Exif
	assert.Error(t, e.Scan(42))
	assert.Error(t, e.Scan("not json"))
}

func TestPhotoFields_WithPlaceholders(t *testing.T) {
	got := PhotoFields{Title: "  ", By: "ann"}.WithPlaceholders()
	assert.Equal(t, PhotoFields{Title: DefaultTitle, Caption: DefaultCaption, By: "ann"}, got)

	assert.Equal(t, "Sunset", PhotoFields{Title: " Sunset "}.WithPlaceholders().Title)
}
