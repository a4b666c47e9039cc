package metadata

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/anoixa/pixly/internal/testutil"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJPEG() []byte {
	tiffData := testutil.TIFF(
		[]testutil.Entry{
			testutil.ASCII(testutil.TagMake, "Canon"),
			testutil.ASCII(testutil.TagModel, "EOS R5"),
			testutil.Short(testutil.TagOrientation, 1),
			testutil.Rational(testutil.TagXResolution, 72, 1),
			testutil.Short(0xABCD, 7),
		},
		[]testutil.Entry{
			testutil.Rational(testutil.TagExposureTime, 1, 250),
			testutil.SRational(testutil.TagExposureBias, 0, 0),
			testutil.Undefined(testutil.TagUserComment, []byte("ASCII\x00\x00\x00hi\xff")),
		},
	)
	return testutil.InsertExif(testutil.JPEG(8, 8), tiffData)
}

func TestExtract_RecognizedTagsOnly(t *testing.T) {
	tags, err := Extract(bytes.NewReader(sampleJPEG()))
	require.NoError(t, err)

	assert.Equal(t, "Canon", tags["Make"])
	assert.Equal(t, "EOS R5", tags["Model"])
	assert.Equal(t, int64(1), tags["Orientation"])

	allowed := map[string]bool{
		"Make": true, "Model": true, "Orientation": true, "XResolution": true,
		"ExifIFDPointer": true, "ExposureTime": true, "ExposureBiasValue": true, "UserComment": true,
	}
	for k := range tags {
		assert.True(t, allowed[k], "unexpected tag %q", k)
		assert.False(t, strings.HasPrefix(k, exif.UnknownPrefix))
	}
}

func TestExtract_NormalizesValues(t *testing.T) {
	tags, err := Extract(bytes.NewReader(sampleJPEG()))
	require.NoError(t, err)

	assert.Equal(t, 72.0, tags["XResolution"])
	assert.InDelta(t, 0.004, tags["ExposureTime"], 1e-12)

	// 分母为 0 的有理数
	v, ok := tags["ExposureBiasValue"]
	assert.True(t, ok)
	assert.Nil(t, v)

	comment, ok := tags["UserComment"].(string)
	require.True(t, ok, "bytes should be decoded to text")
	assert.Equal(t, "ASCII\x00\x00\x00hi�", comment)

	for k, v := range tags {
		_, isBytes := v.([]byte)
		_, isRat := v.(Rational)
		assert.False(t, isBytes || isRat, "tag %s not normalized: %T", k, v)
	}
}

func TestExtract_NoExif(t *testing.T) {
	tests := map[string][]byte{
		"jpeg":    testutil.JPEG(4, 4),
		"png":     testutil.PNG(4, 4),
		"garbage": []byte("definitely not an image"),
		"empty":   {},
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			tags, err := Extract(bytes.NewReader(data))
			require.NoError(t, err)
			assert.NotNil(t, tags)
			assert.Empty(t, tags)
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestExtract_ReadError(t *testing.T) {
	_, err := Extract(errReader{})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"rational", Rational{Num: 1, Den: 4}, 0.25},
		{"negative rational", Rational{Num: -1, Den: 2}, -0.5},
		{"zero denominator", Rational{Num: 3, Den: 0}, nil},
		{"bytes", []byte("plain"), "plain"},
		{"invalid bytes", []byte{'a', 0xff, 0xfe, 'b'}, "a��b"},
		{"scalar passthrough", int64(5), int64(5)},
		{"string passthrough", "x", "x"},
		{"nested tuple", []any{Rational{1, 2}, []any{[]byte("z"), Rational{2, 1}}}, []any{0.5, []any{"z", 2.0}}},
		{"rational slice", []Rational{{1, 1}, {1, 0}}, []any{1.0, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_MapInPlace(t *testing.T) {
	m := map[string]any{
		"a": Rational{Num: 3, Den: 2},
		"b": map[string]any{"c": []byte("d")},
	}

	out := Normalize(m)
	assert.Equal(t, 1.5, m["a"])
	assert.Equal(t, map[string]any{"c": "d"}, m["b"])
	assert.Equal(t, m, out)
}
