package device

import (
	"testing"
	"time"

	"github.com/itohio/gopem/pkg/config"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockCfg() *config.MockConfig {
	return &config.MockConfig{
		Seed:        1,
		StartVolume: 1500000,
		InflowBias:  0,
		MotorOn:     false,
		Regulator:   512,
		SampleRate:  10 * time.Millisecond,
	}
}

func TestMock_ConnectAndFrames(t *testing.T) {
	lim := envlimits.Canonical()
	mock := NewMock(mockCfg(), lim)

	require.NoError(t, mock.Connect())
	defer mock.Close()

	assert.True(t, mock.IsConnected())
	assert.Error(t, mock.Connect(), "double connect must fail")

	var frames []Frame
	timeout := time.After(2 * time.Second)
	for len(frames) < 5 {
		select {
		case f := <-mock.Frames():
			frames = append(frames, f)
		case <-timeout:
			t.Fatal("timed out waiting for frames")
		}
	}

	for _, f := range frames {
		assert.GreaterOrEqual(t, f.Volume, lim.PoolEmpty)
		assert.LessOrEqual(t, f.Volume, lim.PoolFull)
		assert.LessOrEqual(t, f.Inflow, lim.InflowAbsMax)
		assert.GreaterOrEqual(t, f.Inflow, -lim.InflowAbsMax)
		assert.LessOrEqual(t, int(f.Regulator), lim.MaxAnalogRead)
	}
}

func TestMock_LEDsMatchClassification(t *testing.T) {
	lim := envlimits.Canonical()

	tests := []struct {
		name        string
		startVolume int64
		wantLow     bool
		wantOK      bool
		wantHigh    bool
		wantCrit    bool
	}{
		{"empty band", 100000, true, false, false, false},
		{"low band", 800000, true, false, false, false},
		{"ok band", 1500000, false, true, false, false},
		{"high band", 3000000, false, false, true, false},
		{"critical band", 3700000, false, false, false, true},
		{"full band", 4500000, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mockCfg()
			cfg.StartVolume = tt.startVolume
			mock := NewMock(cfg, lim)
			require.NoError(t, mock.Connect())
			defer mock.Close()

			select {
			case f := <-mock.Frames():
				assert.Equal(t, tt.wantLow, f.LowLED)
				assert.Equal(t, tt.wantOK, f.OKLED)
				assert.Equal(t, tt.wantHigh, f.HighLED)
				assert.Equal(t, tt.wantCrit, f.CriticalLED)
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for frame")
			}
		})
	}
}

func TestMock_MotorDrainsReservoir(t *testing.T) {
	lim := envlimits.Canonical()
	cfg := mockCfg()
	cfg.MotorOn = true
	cfg.Regulator = 1023 // full speed

	mock := NewMock(cfg, lim)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	var first, last Frame
	timeout := time.After(2 * time.Second)
	for i := 0; i < 10; i++ {
		select {
		case f := <-mock.Frames():
			if i == 0 {
				first = f
			}
			last = f
		case <-timeout:
			t.Fatal("timed out waiting for frames")
		}
	}

	assert.Less(t, last.Volume, first.Volume, "running motor must drain the reservoir")
	assert.True(t, last.LossLED, "draining reservoir must light the net loss LED")
	assert.False(t, last.GainLED)
}

func TestMock_Debounce(t *testing.T) {
	lim := envlimits.Canonical()
	mock := NewMock(mockCfg(), lim)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	// First change is accepted, an immediate follow-up is not.
	require.NoError(t, mock.SetMotor(true))
	assert.ErrorIs(t, mock.ToggleMotor(), ErrDebounced)
	assert.ErrorIs(t, mock.SetValve(true), ErrDebounced)

	// After the debounce interval the next change is accepted again.
	time.Sleep(lim.DebounceInterval + 10*time.Millisecond)
	assert.NoError(t, mock.ToggleMotor())
}

func TestMock_CommandsRequireConnection(t *testing.T) {
	mock := NewMock(mockCfg(), envlimits.Canonical())

	assert.Error(t, mock.SetMotor(true))
	assert.Error(t, mock.ToggleMotor())
	assert.Error(t, mock.SetValve(true))
}

func TestMock_SetRegulatorClamps(t *testing.T) {
	lim := envlimits.Canonical()
	mock := NewMock(mockCfg(), lim)

	mock.SetRegulator(-50)
	assert.Equal(t, lim.MinAnalogRead, mock.regulator)

	mock.SetRegulator(5000)
	assert.Equal(t, lim.MaxAnalogRead, mock.regulator)

	mock.SetRegulator(300)
	assert.Equal(t, 300, mock.regulator)
	assert.Equal(t, lim.HalfSpeed, pool.SpeedForControl(mock.regulator, lim))
}

func TestMock_CloseIdempotent(t *testing.T) {
	mock := NewMock(mockCfg(), envlimits.Canonical())
	require.NoError(t, mock.Connect())

	assert.NoError(t, mock.Close())
	assert.NoError(t, mock.Close())
	assert.False(t, mock.IsConnected())
}
