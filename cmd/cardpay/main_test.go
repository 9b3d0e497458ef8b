package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/cardpay/internal/testutil"
)

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	noenv := func(string) string { return "" }
	tmpwd := func() (string, error) { return t.TempDir(), nil }

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err = run(ctx, noenv, tmpwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--environment", "dev",
			"--database", pg.DSN,
			"--device-key", "somade_daniel",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("stop with config error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		// Try to run without device key. Must fail
		err := run(ctx, noenv, tmpwd, []string{
			"--address", listenAddr,
			"--database", pg.DSN,
		})

		require.Error(t, err, "on incorrect config should return error")
	})

	t.Run("bad log level", func(t *testing.T) {
		err := run(t.Context(), noenv, tmpwd, []string{
			"--address", listenAddr,
			"--database", pg.DSN,
			"--device-key", "somade_daniel",
			"--log-level", "verbose",
		})

		require.Error(t, err)
	})
}
