package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.VerifyTestMain(m)
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		ConfigPath:    filepath.Join(t.TempDir(), "cadenza.toml"),
		UseMockEngine: true,
	}
}

func TestNewApplication(t *testing.T) {
	application, err := New(testOptions(t))
	require.NoError(t, err)
	require.NotNil(t, application)

	// Verify all services were created
	assert.NotNil(t, application.Session())
	assert.NotNil(t, application.Playlist())
	assert.NotNil(t, application.Radio())

	application.Shutdown()
}

func TestApplicationLifecycle(t *testing.T) {
	application, err := New(testOptions(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx, Options{})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	application.Shutdown()

	// Shutdown again should not panic
	application.Shutdown()
}

func TestRunQueuesStartupMedia(t *testing.T) {
	opts := testOptions(t)
	media := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(media, []byte("stub"), 0o644))
	opts.MediaPaths = []string{media, "https://stream.example.com/live"}

	application, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(application.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx, opts)
	}()

	require.Eventually(t, func() bool {
		return application.Playlist().RowCount() == 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return application.Session().CurrentURL() == media
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRunResumesLastPlayedFile(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "album.flac")
	require.NoError(t, os.WriteFile(media, []byte("stub"), 0o644))

	configPath := filepath.Join(dir, "cadenza.toml")
	contents := "[playback]\nlast_played_file = \"" + media + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(contents), 0o644))

	opts := Options{ConfigPath: configPath, UseMockEngine: true}
	application, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(application.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx, opts)
	}()

	require.Eventually(t, func() bool {
		return application.Session().CurrentURL() == media
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
