package metadata

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/logger"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// buildWAV assembles a minimal RIFF/WAVE file with the given byte rate and
// data size.
func buildWAV(byteRate, dataSize uint32) []byte {
	var buf []byte
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataSize)
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	fields := make([]byte, 16)
	binary.LittleEndian.PutUint16(fields[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fields[2:4], 2) // channels
	binary.LittleEndian.PutUint32(fields[4:8], 44100)
	binary.LittleEndian.PutUint32(fields[8:12], byteRate)
	binary.LittleEndian.PutUint16(fields[12:14], 4)  // block align
	binary.LittleEndian.PutUint16(fields[14:16], 16) // bits per sample
	buf = append(buf, fields...)

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, dataSize)
	buf = append(buf, make([]byte, dataSize)...)
	return buf
}

// buildFLAC assembles a FLAC stream marker plus a STREAMINFO block for a
// 16-bit stereo stream.
func buildFLAC(sampleRate uint32, totalSamples uint64) []byte {
	var buf []byte
	buf = append(buf, "fLaC"...)
	buf = append(buf, 0x80, 0x00, 0x00, 0x22) // last block, STREAMINFO, 34 bytes

	info := make([]byte, 34)
	info[0], info[1] = 0x10, 0x00 // min block size 4096
	info[2], info[3] = 0x10, 0x00 // max block size 4096
	info[10] = byte(sampleRate >> 12)
	info[11] = byte(sampleRate >> 4)
	info[12] = byte(sampleRate<<4)&0xF0 | 0x02    // sample rate low nibble, 2 channels
	info[13] = 0xF0 | byte(totalSamples>>32)&0x0F // 16 bits per sample
	info[14] = byte(totalSamples >> 24)
	info[15] = byte(totalSamples >> 16)
	info[16] = byte(totalSamples >> 8)
	info[17] = byte(totalSamples)
	return append(buf, info...)
}

// buildMP3 assembles a constant-bitrate MPEG-1 layer III stream of silent
// frames: 128 kbit/s at 44100 Hz gives 417-byte frames of 1152 samples each.
func buildMP3(frames int) []byte {
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB // MPEG-1, layer III, no CRC
	frame[2] = 0x90 // 128 kbit/s, 44100 Hz
	frame[3] = 0x00 // stereo

	buf := make([]byte, 0, frames*len(frame))
	for i := 0; i < frames; i++ {
		buf = append(buf, frame...)
	}
	return buf
}

func TestWavDuration(t *testing.T) {
	// 176400 bytes/s, 352800 bytes of samples = 2 seconds
	path := writeFile(t, "clip.wav", buildWAV(176400, 352800))

	prober := NewProber(logger.NewTestLogger())

	assert.InDelta(t, 2.0, prober.Duration(path), 0.01)
}

func TestFlacDuration(t *testing.T) {
	path := writeFile(t, "clip.flac", buildFLAC(48000, 480000))

	prober := NewProber(logger.NewTestLogger())

	assert.InDelta(t, 10.0, prober.Duration(path), 0.001)
}

func TestMp3Duration(t *testing.T) {
	// 383 frames of 1152 samples at 44100 Hz = 10 seconds
	path := writeFile(t, "clip.mp3", buildMP3(383))

	prober := NewProber(logger.NewTestLogger())

	assert.InDelta(t, 10.0, prober.Duration(path), 0.1)
}

func TestDurationOfMalformedFile(t *testing.T) {
	path := writeFile(t, "broken.wav", []byte("definitely not a wav"))

	prober := NewProber(logger.NewTestLogger())

	assert.Zero(t, prober.Duration(path))
}

func TestDurationOfMissingFile(t *testing.T) {
	prober := NewProber(logger.NewTestLogger())

	assert.Zero(t, prober.Duration("/no/such/file.wav"))
}

func TestDurationOfUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "movie.mkv", []byte{0x1A, 0x45, 0xDF, 0xA3})

	prober := NewProber(logger.NewTestLogger())

	// video durations come from the engine, not the prober
	assert.Zero(t, prober.Duration(path))
}

func TestMimeTypeByExtension(t *testing.T) {
	prober := NewProber(logger.NewTestLogger())

	assert.Equal(t, "video/x-matroska", prober.MimeType("/media/movie.mkv"))
	assert.Equal(t, "audio/mpeg", prober.MimeType("/media/song.MP3"))
	assert.Equal(t, "video/mp4", prober.MimeType("/media/clip.m4v"))
}

func TestMimeTypeUndetectable(t *testing.T) {
	path := writeFile(t, "blob.bin", []byte{0x00, 0x01, 0x02, 0x03})

	prober := NewProber(logger.NewTestLogger())

	assert.Empty(t, prober.MimeType(path))
}

func TestProbeFallsBackToFilename(t *testing.T) {
	path := writeFile(t, "clip.wav", buildWAV(176400, 176400))

	prober := NewProber(logger.NewTestLogger())
	item := prober.Probe(path)

	assert.Equal(t, path, item.URL)
	assert.Equal(t, "clip.wav", item.Title)
	assert.InDelta(t, 1.0, item.Duration, 0.001)
}

func TestSubtitleSearch(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "Movie Night.mkv")
	require.NoError(t, os.WriteFile(media, []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subs"), 0o755))

	for _, name := range []string{
		"Movie Night.srt",
		"movie night.en.srt",
		filepath.Join("subs", "Movie Night.ass"),
		"Other Film.srt",
		"Movie Night.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	searcher := NewSubtitleSearcher(logger.NewTestLogger())
	matches, err := searcher.Find(context.Background(), media)

	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, match := range matches {
		assert.Contains(t, match, "ovie")
	}
}

func TestSubtitleSearchCancelled(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(media, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := NewSubtitleSearcher(logger.NewTestLogger())
	_, err := searcher.Find(ctx, media)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubtitleSearchNoMatches(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(media, []byte("x"), 0o644))

	searcher := NewSubtitleSearcher(logger.NewTestLogger())
	matches, err := searcher.Find(context.Background(), media)

	require.NoError(t, err)
	assert.Empty(t, matches)
}
