package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecognizesKnownNames(t *testing.T) {
	cases := map[string]Dialect{
		"marlin":         Marlin,
		"Repetier":       Repetier,
		"SMOOTHIEWARE":   Smoothieware,
		"reprapfirmware": RepRapFirmware,
		"duet":           RepRapFirmware,
		"teacup":         Teacup,
	}
	for name, want := range cases {
		assert.Equal(t, want, Parse(name), name)
	}
}

func TestParseUnknownNameFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Parse("not-a-real-firmware"))
}

func TestParseJunctionModeDefaultsToJerkDifference(t *testing.T) {
	assert.Equal(t, JunctionJerkDifference, ParseJunctionMode(""))
	assert.Equal(t, JunctionJerkDifference, ParseJunctionMode("jerk"))
	assert.Equal(t, JunctionCentripetal, ParseJunctionMode("centripetal"))
}

func TestLookupFallsBackToUnknownEntry(t *testing.T) {
	entry := Lookup(Dialect(200))
	assert.Equal(t, Table[Unknown], entry)
}

func TestLookupRepRapFirmwareDivisors(t *testing.T) {
	entry := Lookup(RepRapFirmware)
	assert.Equal(t, 60.0, entry.M203FeedrateDivisor)
	assert.Equal(t, 60.0, entry.M566JerkDivisor)
}
