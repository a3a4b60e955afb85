package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeGivenMarks(t *testing.T) {
	assert.True(t, Tokenize("√", false).Given)
	assert.True(t, Tokenize("✓", false).Given)
	assert.True(t, Tokenize("■", false).Given)
	assert.True(t, Tokenize("√bakk", false).Given)
	assert.True(t, Tokenize("V", false).Given)
	assert.True(t, Tokenize("given V 8", false).Given)
	assert.False(t, Tokenize("Vancomycin", false).Given)
	assert.False(t, Tokenize("", false).Given)
}

func TestTokenizeTimeForcesGiven(t *testing.T) {
	tok := Tokenize("08:00", false)
	assert.True(t, tok.Given)
	assert.Equal(t, "08:00", tok.Time)
	assert.Nil(t, tok.ChartCode)
}

func TestTokenizeTimeInChunks(t *testing.T) {
	tok := Tokenize("held; 8:15", false)
	assert.Equal(t, "8:15", tok.Time)

	// A date range must not read as a clock time.
	tok = Tokenize("8/14-8/20", false)
	assert.Equal(t, "", tok.Time)
	assert.False(t, tok.Given)
}

func TestTokenizeXMark(t *testing.T) {
	assert.True(t, Tokenize("X", false).XMark)
	assert.True(t, Tokenize("x ", false).XMark)
	assert.False(t, Tokenize("Rx", false).XMark)
}

func TestTokenizeBloodPressure(t *testing.T) {
	tok := Tokenize("165/70", false)
	require.NotNil(t, tok.SBP)
	require.NotNil(t, tok.DBP)
	assert.Equal(t, 165, *tok.SBP)
	assert.Equal(t, 70, *tok.DBP)
	assert.Nil(t, tok.ChartCode)
}

func TestTokenizeRepairsWrappedFraction(t *testing.T) {
	tok := Tokenize("152/\n72", false)
	require.NotNil(t, tok.SBP)
	assert.Equal(t, 152, *tok.SBP)
	assert.Equal(t, 72, *tok.DBP)
}

func TestTokenizeLabeledHeartRate(t *testing.T) {
	tok := Tokenize("HR 72", false)
	require.NotNil(t, tok.HR)
	assert.Equal(t, 72, *tok.HR)
	assert.Nil(t, tok.ChartCode, "labeled HR is not a chart code")

	tok = Tokenize("Pulse: 58", false)
	require.NotNil(t, tok.HR)
	assert.Equal(t, 58, *tok.HR)
}

func TestTokenizeBareHeartRateNeedsTrackFlag(t *testing.T) {
	withTrack := Tokenize("62", true)
	require.NotNil(t, withTrack.HR)
	assert.Equal(t, 62, *withTrack.HR)
	assert.Nil(t, withTrack.ChartCode)

	withoutTrack := Tokenize("62", false)
	assert.Nil(t, withoutTrack.HR)
	require.NotNil(t, withoutTrack.ChartCode)
	assert.Equal(t, 62, *withoutTrack.ChartCode)
}

func TestTokenizeBareHeartRateRange(t *testing.T) {
	// Out of the plausible 40-180 range: a chart code, not an HR.
	tok := Tokenize("11", true)
	assert.Nil(t, tok.HR)
	require.NotNil(t, tok.ChartCode)
	assert.Equal(t, 11, *tok.ChartCode)
}

func TestTokenizeChartCode(t *testing.T) {
	tok := Tokenize("4", false)
	require.NotNil(t, tok.ChartCode)
	assert.Equal(t, 4, *tok.ChartCode)
	assert.False(t, tok.Given)

	// Integers glued to times or fractions never become codes.
	assert.Nil(t, Tokenize("08:00", false).ChartCode)
	assert.Nil(t, Tokenize("120/80", false).ChartCode)
}

func TestTokenizeCombinedCell(t *testing.T) {
	tok := Tokenize("√bakk 08:00\n165/70", true)
	assert.True(t, tok.Given)
	assert.Equal(t, "08:00", tok.Time)
	require.NotNil(t, tok.SBP)
	assert.Equal(t, 165, *tok.SBP)
	assert.Equal(t, 70, *tok.DBP)
	assert.Nil(t, tok.ChartCode)
}

func TestTokenizeIdempotent(t *testing.T) {
	first := Tokenize("√bakk", false)
	second := Tokenize(first.Raw, false)
	assert.Equal(t, first, second)
	assert.True(t, second.Given)
}

func TestNormalizeTimeToken(t *testing.T) {
	cases := []struct {
		token string
		want  TimeNorm
	}{
		{"0600", TimeNorm{Raw: "0600", Normalized: "06:00"}},
		{"2100", TimeNorm{Raw: "2100", Normalized: "21:00"}},
		{"8:00", TimeNorm{Raw: "8:00", Normalized: "08:00"}},
		{"6a-10", TimeNorm{Raw: "6a-10", Range: "06:00-10:00", Slot: "am"}},
		{"11a -", TimeNorm{Raw: "11a -", Range: "11:00-13:59", Slot: "noon"}},
		{"12p-2", TimeNorm{Raw: "12p-2", Range: "12:00-14:00", Slot: "noon"}},
		{"4pm-7", TimeNorm{Raw: "4pm-7", Range: "16:00-19:00", Slot: "pm"}},
		{"8pm-1", TimeNorm{Raw: "8pm-1", Range: "20:00-01:00", Slot: "overnight"}},
		{"HS", TimeNorm{Raw: "HS", Slot: "hs"}},
		{"AM", TimeNorm{Raw: "AM", Slot: "am"}},
		{"PM", TimeNorm{Raw: "PM", Slot: "pm"}},
		{"8 pm", TimeNorm{Raw: "8 pm", Normalized: "20:00", Slot: "pm"}},
		{"12 am", TimeNorm{Raw: "12 am", Normalized: "00:00", Slot: "am"}},
		{"6:30-10", TimeNorm{Raw: "6:30-10", Normalized: "06:30"}},
		{"4 - 7", TimeNorm{Raw: "4 - 7", Range: "04:00-07:00"}},
		{"evening dose", TimeNorm{Raw: "evening dose", Slot: "evening"}},
		{"??", TimeNorm{Raw: "??"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTimeToken(tc.token), tc.token)
	}
}

func TestParseTimeToken(t *testing.T) {
	assert.Equal(t, "06:00", ParseTimeToken("0600"))
	assert.Equal(t, "", ParseTimeToken("6a-10"))
}

func TestExtractClock(t *testing.T) {
	assert.Equal(t, "08:00", ExtractClock("given 08:00"))
	assert.Equal(t, "19:45", ExtractClock("hold, 19:45"))
	assert.Equal(t, "", ExtractClock("06-10"))
	assert.Equal(t, "", ExtractClock(""))
}
