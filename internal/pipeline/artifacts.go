package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

const outputSuffix = "_with_subs.mp4"

// Artifacts names every file a run reads or writes.
type Artifacts struct {
	// Input is the video as given by the caller.
	Input string
	// Base is Input without its extension. All artifacts derive from it.
	Base string
	// Stem is the final path element of Base; whisper names its outputs
	// after it.
	Stem string
	// WAV is the extracted audio.
	WAV string
	// Output is the subtitled video.
	Output string
	// TranscriptDir is where whisper writes its outputs.
	TranscriptDir string
}

// BaseName strips the extension from path. Leading dots of the final element
// do not start an extension, so ".clip" keeps its name.
func BaseName(path string) string {
	name := filepath.Base(path)
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	return strings.TrimSuffix(path, ext)
}

// NewArtifacts derives the artifact paths for input. transcriptDir is the
// directory whisper writes into, already resolved by the caller.
func NewArtifacts(input, transcriptDir string) Artifacts {
	base := BaseName(input)
	return Artifacts{
		Input:         input,
		Base:          base,
		Stem:          filepath.Base(base),
		WAV:           base + ".wav",
		Output:        base + outputSuffix,
		TranscriptDir: transcriptDir,
	}
}

// transcriptPrefix is the path prefix of whisper's outputs. It is Base itself
// when whisper writes next to the input, which keeps relative inputs matching
// as given.
func (a Artifacts) transcriptPrefix() string {
	if a.TranscriptDir == "" || sameDir(filepath.Dir(a.Base), a.TranscriptDir) {
		return a.Base
	}
	return filepath.Join(a.TranscriptDir, a.Stem)
}

// SubtitlePattern is the glob matched against whisper's subtitle outputs.
func (a Artifacts) SubtitlePattern() string {
	return escapeGlob(a.transcriptPrefix()) + "*.srt"
}

// FindSubtitle returns the first subtitle file in lexical order.
func (a Artifacts) FindSubtitle() (string, error) {
	pattern := a.SubtitlePattern()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", ErrSubtitleNotFound
	}
	sort.Strings(matches)
	return matches[0], nil
}

// CleanupCandidates lists the intermediate files removed after a successful
// burn, for each of the given extensions. The input itself is never listed.
func (a Artifacts) CleanupCandidates(extensions []string) []string {
	prefixes := []string{a.Base}
	if prefix := a.transcriptPrefix(); prefix != a.Base {
		prefixes = append(prefixes, prefix)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, prefix := range prefixes {
		for _, ext := range extensions {
			candidate := prefix + ext
			if samePath(candidate, a.Input) {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}
	return out
}

func sameDir(a, b string) bool {
	return samePath(a, b)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)

func escapeGlob(value string) string {
	return globEscaper.Replace(value)
}
