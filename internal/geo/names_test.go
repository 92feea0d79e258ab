package geo

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFromName(t *testing.T) {
	ix := newTestIndex(t)

	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"Ukraine", "UA", true},
		{"ukraine", "UA", true},
		{"  Moldova ", "MD", true},
		{"uk", "GB", true},
		{"south korea", "KR", true},
		{"UAE", "AE", true},
		{"atlantis", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		code, ok := ix.CodeFromName(tt.name)
		assert.Equal(t, tt.ok, ok, "name=%q", tt.name)
		if tt.ok {
			assert.Equal(t, tt.code, code, "name=%q", tt.name)
		}
	}
}

func TestScanTextForCountryNames(t *testing.T) {
	ix := newTestIndex(t)

	t.Run("two countries once each", func(t *testing.T) {
		codes := ix.ScanTextForCountryNames("Tensions rise between Ukraine and Russia")
		assert.Equal(t, []string{"UA", "RU"}, codes)
	})

	t.Run("match order follows text order", func(t *testing.T) {
		codes := ix.ScanTextForCountryNames("Russia shells Ukraine near Moldova border")
		assert.Equal(t, []string{"RU", "UA", "MD"}, codes)
	})

	t.Run("longer names consume their substring", func(t *testing.T) {
		// "south korea" must not additionally surface as a second match.
		codes := ix.ScanTextForCountryNames("Talks between South Korea and Japan resume")
		assert.Equal(t, []string{"KR", "JP"}, codes)
	})

	t.Run("no whole word no match", func(t *testing.T) {
		codes := ix.ScanTextForCountryNames("Ukrainian officials met in Geneva")
		assert.Empty(t, codes)
	})

	t.Run("repeated mention counted once", func(t *testing.T) {
		codes := ix.ScanTextForCountryNames("Iran warns Iran-aligned groups")
		assert.Equal(t, []string{"IR"}, codes)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, ix.ScanTextForCountryNames(""))
	})
}

func TestScanWorksWithoutDataset(t *testing.T) {
	ix := NewIndex(slog.Default())
	codes := ix.ScanTextForCountryNames("Strikes reported in Yemen and Lebanon")
	require.Len(t, codes, 2)
	assert.Equal(t, []string{"YE", "LB"}, codes)
}

func TestNameOf(t *testing.T) {
	ix := newTestIndex(t)

	assert.Equal(t, "Ukraine", ix.NameOf("UA"))
	assert.Equal(t, "Yemen", ix.NameOf("YE"))   // static fallback
	assert.Equal(t, "Q7", ix.NameOf("q7"))      // unknown echoes the code
}
