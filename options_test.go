// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArenaSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "64MiB", want: 64 << 20},
		{in: "1GB", want: 1_000_000_000},
		{in: "4096", want: 4096},
		{in: "2 GiB", want: 2 << 30},
		{in: "0", wantErr: true},
		{in: "lots", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseArenaSize(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOptionDefaults(t *testing.T) {
	h := New()
	require.Equal(t, DefaultArenaSize, h.Cap())
	require.False(t, h.logger.Enabled(context.Background(), slog.LevelError))

	h = New(WithArenaSize(-5), WithReserver(nil), WithLogger(nil))
	require.Equal(t, DefaultArenaSize, h.Cap())
	require.NotNil(t, h.reserver)
	require.NotNil(t, h.logger)

	h = New(WithArenaSize(1 << 20))
	require.Equal(t, 1<<20, h.Cap())
}

func TestEnvOptions(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv(EnvDebug, "")
		t.Setenv(EnvArenaSize, "")
		opts, err := envOptions()
		require.NoError(t, err)
		require.Empty(t, opts)
	})

	t.Run("arena size", func(t *testing.T) {
		t.Setenv(EnvDebug, "")
		t.Setenv(EnvArenaSize, "1MiB")
		opts, err := envOptions()
		require.NoError(t, err)
		require.Equal(t, 1<<20, New(opts...).Cap())
	})

	t.Run("invalid arena size", func(t *testing.T) {
		t.Setenv(EnvDebug, "")
		t.Setenv(EnvArenaSize, "a lot")
		opts, err := envOptions()
		require.Error(t, err)
		require.Equal(t, DefaultArenaSize, New(opts...).Cap())
	})

	t.Run("debug", func(t *testing.T) {
		t.Setenv(EnvDebug, "1")
		t.Setenv(EnvArenaSize, "")
		opts, err := envOptions()
		require.NoError(t, err)
		h := New(opts...)
		require.True(t, h.logger.Enabled(context.Background(), slog.LevelDebug))
	})
}
