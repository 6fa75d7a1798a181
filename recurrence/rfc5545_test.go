package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		allDay  bool
		wantErr bool
	}{
		{
			name:  "utc date-time",
			input: "20180104T123456Z",
			want:  time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC),
		},
		{
			name:  "floating date-time",
			input: "20180104T123456",
			want:  time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC),
		},
		{
			name:   "date only",
			input:  "20180104",
			want:   time.Date(2018, 1, 4, 0, 0, 0, 0, time.UTC),
			allDay: true,
		},
		{
			name:  "surrounding whitespace",
			input: " 20180104T123456Z ",
			want:  time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay, err := ParseDateTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			assert.Equal(t, tt.allDay, allDay)
		})
	}
}

func TestFormatDateTime(t *testing.T) {
	v := time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, "20180104T123456Z", FormatDateTime(v, false))
	assert.Equal(t, "20180104", FormatDateTime(v, true))
}

func TestDateTimeListRoundTrip(t *testing.T) {
	d0 := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	d2 := d0.AddDate(0, 0, 2)

	// out of order and with a duplicate
	s := FormatDateTimeList([]time.Time{d2, d0, d1, d0}, false)
	assert.Equal(t, "20180104T120000Z,20180105T120000Z,20180106T120000Z", s)

	parsed, err := ParseDateTimeList(s)
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	assert.True(t, parsed[0].Equal(d0))
	assert.True(t, parsed[2].Equal(d2))
}

func TestParseDateTimeListEmpty(t *testing.T) {
	parsed, err := ParseDateTimeList("")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestWithAndWithoutDate(t *testing.T) {
	d0 := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)

	ts := WithDate(nil, d1)
	ts = WithDate(ts, d0)
	ts = WithDate(ts, d0)
	require.Len(t, ts, 2)
	assert.True(t, ts[0].Equal(d0))

	ts = WithoutDate(ts, d0)
	require.Len(t, ts, 1)
	assert.True(t, ts[0].Equal(d1))
	assert.False(t, ContainsTime(ts, d0))
	assert.True(t, ContainsTime(ts, d1))
}
