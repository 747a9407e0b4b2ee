package etl

import (
	"github.com/google/uuid"

	"github.com/username/momosms/backend/src/logger"
)

// Pipeline runs extract, normalize, classify and load in order, fully
// materializing each stage's output and writing it to a stage file before
// the next stage starts.
type Pipeline struct {
	Extractor  Extractor
	Normalizer Normalizer
	Classifier Classifier
	Loader     Loader
	StageDir   string
}

// Summary reports per-stage counts for one pipeline run.
type Summary struct {
	RunID             string `json:"run_id"`
	Extracted         int    `json:"extracted"`
	Normalized        int    `json:"normalized"`
	NormalizerSkipped int    `json:"normalizer_skipped"`
	Classified        int    `json:"classified"`
	ClassifierSkipped int    `json:"classifier_skipped"`
	Loaded            int    `json:"loaded"`
	LoaderSkipped     int    `json:"loader_skipped"`
}

// Run executes the full pipeline against the XML export at inputPath.
func (p *Pipeline) Run(inputPath string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger.L.Info("Pipeline run starting", "runID", summary.RunID, "input", inputPath)

	raw, err := p.Extractor.ExtractFile(inputPath)
	if err != nil {
		return summary, err
	}
	summary.Extracted = len(raw)
	if err := writeStageFile(p.StageDir, StageFileRaw, raw); err != nil {
		return summary, err
	}

	normalized, normSkipped := p.Normalizer.Normalize(raw)
	summary.Normalized = len(normalized)
	summary.NormalizerSkipped = normSkipped
	if err := writeStageFile(p.StageDir, StageFileNormalized, normalized); err != nil {
		return summary, err
	}

	classified, classSkipped := p.Classifier.Classify(normalized)
	summary.Classified = len(classified)
	summary.ClassifierSkipped = classSkipped
	if err := writeStageFile(p.StageDir, StageFileClassified, classified); err != nil {
		return summary, err
	}

	result, err := p.Loader.Load(classified, summary.RunID)
	summary.Loaded = result.Loaded
	summary.LoaderSkipped = result.Skipped
	if err != nil {
		return summary, err
	}

	logger.L.Info("Pipeline run finished",
		"runID", summary.RunID,
		"extracted", summary.Extracted,
		"normalized", summary.Normalized,
		"classified", summary.Classified,
		"loaded", summary.Loaded)
	return summary, nil
}
