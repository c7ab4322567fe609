package pipeline

import "subburn/internal/history"

// stage identifies a pipeline step. Values double as history statuses.
type stage string

const (
	stageValidating   stage = "validating"
	stageExtracting   stage = stage(history.StatusExtracting)
	stageTranscribing stage = stage(history.StatusTranscribing)
	stageLocating     stage = stage(history.StatusLocating)
	stageBurning      stage = stage(history.StatusBurning)
	stageCleaning     stage = stage(history.StatusCleaning)
)

var stageLabels = map[stage]string{
	stageValidating:   "Validating input",
	stageExtracting:   "Extracting audio",
	stageTranscribing: "Transcribing speech",
	stageLocating:     "Locating subtitles",
	stageBurning:      "Burning subtitles",
	stageCleaning:     "Cleaning up",
}

func (s stage) label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s stage) status() history.Status {
	return history.Status(s)
}
