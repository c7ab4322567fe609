package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subburn/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose state directory lives in a per-test temp
// directory. Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTranscriptDir points whisper's output directory at dir.
func WithTranscriptDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.OutputDir = dir
	}
}

// WithoutHistory disables the SQLite run history.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedBinaries writes ffmpeg and whisper stand-ins and prepends them to
// PATH. The ffmpeg stub creates its output file; the whisper stub writes the
// usual .srt/.txt/.vtt/.tsv/.json set named after the audio file. Setting
// SUBBURN_STUB_FAIL to "ffmpeg" or "whisper" makes that stub exit 1.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		scripts := map[string]string{
			"ffmpeg":  ffmpegStub,
			"whisper": whisperStub,
		}
		for name, script := range scripts {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

const ffmpegStub = `#!/bin/sh
if [ "$SUBBURN_STUB_FAIL" = "ffmpeg" ]; then
  echo "ffmpeg stub failure" >&2
  exit 1
fi
for last; do :; done
: > "$last"
`

const whisperStub = `#!/bin/sh
if [ "$SUBBURN_STUB_FAIL" = "whisper" ]; then
  echo "whisper stub failure" >&2
  exit 1
fi
audio="$1"
shift
outdir=.
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then
    outdir="$2"
    shift
  fi
  shift
done
name=$(basename "$audio")
stem="${name%.*}"
for ext in srt txt vtt tsv json; do
  : > "$outdir/$stem.$ext"
done
`
