package timecode

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "zero", input: "00:00:00", want: 0},
		{name: "mixed", input: "01:02:03", want: time.Hour + 2*time.Minute + 3*time.Second},
		{name: "max", input: "23:59:59", want: 23*time.Hour + 59*time.Minute + 59*time.Second},
		{name: "hour out of range", input: "24:00:00", wantErr: true},
		{name: "minute out of range", input: "00:60:00", wantErr: true},
		{name: "second out of range", input: "00:00:60", wantErr: true},
		{name: "single digit", input: "5:00:00", wantErr: true},
		{name: "two parts", input: "05:00", wantErr: true},
		{name: "letters", input: "aa:bb:cc", wantErr: true},
		{name: "negative", input: "-1:00:00", wantErr: true},
		{name: "plus sign", input: "+1:00:00", wantErr: true},
		{name: "plus sign in minutes", input: "00:+5:00", wantErr: true},
		{name: "plus sign everywhere", input: "+0:+0:+0", wantErr: true},
		{name: "inner space", input: "00: 5:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "padded", input: " 01:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMillis(t *testing.T) {
	ms, err := ToMillis("01:02:03")
	require.NoError(t, err)
	assert.Equal(t, int64(3723000), ms)
}

func TestFromMillis(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00"},
		{3723000, "01:02:03"},
		{3723999, "01:02:03"},
		{300000, "00:05:00"},
		{25 * 3600 * 1000, "25:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromMillis(tt.ms), "FromMillis(%d)", tt.ms)
	}
}

func TestRoundTrip(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 500; i++ {
		s := fmt.Sprintf("%02d:%02d:%02d",
			faker.Number(0, 23),
			faker.Number(0, 59),
			faker.Number(0, 59),
		)

		ms, err := ToMillis(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, FromMillis(ms))
	}
}

func TestAddClock(t *testing.T) {
	assert.Equal(t, "10:05:00", AddClock(10*3600*1000, 5*60*1000))
	assert.Equal(t, "00:03:00", AddClock((23*3600+58*60)*1000, 5*60*1000))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(Zero))
	assert.False(t, IsZero("00:00:01"))
}
