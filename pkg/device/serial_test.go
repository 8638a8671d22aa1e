package device

import (
	"testing"
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	lim := envlimits.Canonical()

	tests := []struct {
		name    string
		line    string
		want    Frame
		wantErr bool
	}{
		{
			name: "valid frame - ok band, net gain",
			line: "1234567890123,1500000,1200,512,010010",
			want: Frame{
				Timestamp: time.Unix(0, 1234567890123*int64(time.Millisecond)),
				Volume:    1500000,
				Inflow:    1200,
				Regulator: 512,
				OKLED:     true,
				GainLED:   true,
			},
			wantErr: false,
		},
		{
			name: "valid frame - critical band, net loss",
			line: "1234567890123,3600000,-900,1023,000101",
			want: Frame{
				Timestamp:   time.Unix(0, 1234567890123*int64(time.Millisecond)),
				Volume:      3600000,
				Inflow:      -900,
				Regulator:   1023,
				CriticalLED: true,
				LossLED:     true,
			},
			wantErr: false,
		},
		{
			name: "valid frame - empty pool, all LEDs off",
			line: "1234567890123,0,0,0,000000",
			want: Frame{
				Timestamp: time.Unix(0, 1234567890123*int64(time.Millisecond)),
			},
			wantErr: false,
		},
		{
			name: "valid frame - inflow at absolute max",
			line: "1234567890123,2500000,150000,767,001010",
			want: Frame{
				Timestamp: time.Unix(0, 1234567890123*int64(time.Millisecond)),
				Volume:    2500000,
				Inflow:    150000,
				Regulator: 767,
				HighLED:   true,
				GainLED:   true,
			},
			wantErr: false,
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123,1500000,1200,512",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,1500000,1200,512,010010,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,1500000,1200,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric volume",
			line:    "1234567890123,abc,1200,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - volume above pool full",
			line:    "1234567890123,5000001,1200,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - negative volume",
			line:    "1234567890123,-5,1200,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - inflow above absolute max",
			line:    "1234567890123,1500000,150001,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - inflow below negative absolute max",
			line:    "1234567890123,1500000,-150001,512,010010",
			wantErr: true,
		},
		{
			name:    "invalid - regulator out of read range",
			line:    "1234567890123,1500000,1200,1024,010010",
			wantErr: true,
		},
		{
			name:    "invalid - LED field wrong length",
			line:    "1234567890123,1500000,1200,512,01001",
			wantErr: true,
		},
		{
			name:    "invalid - LED field bad character",
			line:    "1234567890123,1500000,1200,512,0100x0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFrame(tt.line, lim)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
				assert.Equal(t, tt.want.Volume, got.Volume)
				assert.Equal(t, tt.want.Inflow, got.Inflow)
				assert.Equal(t, tt.want.Regulator, got.Regulator)
				assert.Equal(t, tt.want.LowLED, got.LowLED)
				assert.Equal(t, tt.want.OKLED, got.OKLED)
				assert.Equal(t, tt.want.HighLED, got.HighLED)
				assert.Equal(t, tt.want.CriticalLED, got.CriticalLED)
				assert.Equal(t, tt.want.GainLED, got.GainLED)
				assert.Equal(t, tt.want.LossLED, got.LossLED)
			}
		})
	}
}

func TestParseFrame_LegacyProfileBounds(t *testing.T) {
	lim := envlimits.Legacy()

	// Valid under canonical, out of range under legacy.
	_, err := parseFrame("1234567890123,1500000,1200,512,010010", lim)
	assert.Error(t, err)

	frame, err := parseFrame("1234567890123,150000,1200,512,010010", lim)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), frame.Volume)
}

func TestNew(t *testing.T) {
	lim := envlimits.Canonical()
	dev := New("COM3", lim, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 9600, dev.lim.BaudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.frames)
	assert.False(t, dev.IsConnected())
}

func TestNew_DefaultBufferSize(t *testing.T) {
	dev := New("COM3", envlimits.Canonical(), 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CommandsRequireConnection(t *testing.T) {
	dev := New("COM3", envlimits.Canonical(), 0)

	assert.Error(t, dev.SetMotor(true))
	assert.Error(t, dev.ToggleMotor())
	assert.Error(t, dev.SetValve(true))
}
