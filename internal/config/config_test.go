package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "15:10", cfg.Strategy.SquareOffTime)
	assert.Equal(t, 14, cfg.Strategy.ATRPeriod)
	assert.Equal(t, "data", cfg.Data.DataDir)
	assert.Equal(t, "reports", cfg.Data.ReportDir)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "band.runs", cfg.Redis.StreamName)
	assert.Equal(t, 8090, cfg.API.Port)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STRATEGY_SQUARE_OFF_TIME", "10:00")
	t.Setenv("DATA_SYMBOLS", "RELIANCE, TCS")
	t.Setenv("DB_MAX_CONNECTIONS", "50")
	t.Setenv("API_READ_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10:00", cfg.Strategy.SquareOffTime)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, cfg.Data.Symbols)
	assert.Equal(t, 50, cfg.Database.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.API.ReadTimeout)
}

func TestLoad_InvalidSquareOff(t *testing.T) {
	t.Setenv("STRATEGY_SQUARE_OFF_TIME", "noon")

	_, err := Load()
	assert.Error(t, err)
}

func TestSquareOffMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "15:10", want: 910},
		{input: "09:15", want: 555},
		{input: "00:00", want: 0},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "1510", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := StrategyConfig{SquareOffTime: tt.input}
			got, err := s.SquareOffMinutes()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
