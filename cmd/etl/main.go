package main

import (
	"flag"
	stdlog "log"

	"github.com/username/momosms/backend/src/config"
	"github.com/username/momosms/backend/src/database"
	"github.com/username/momosms/backend/src/etl"
	"github.com/username/momosms/backend/src/logger"
)

func main() {
	inputPath := flag.String("input", "", "path to the SMS XML export (defaults to SMS_XML_PATH)")
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("MoMo SMS ETL pipeline starting...")

	database.InitDB(config.Cfg.DatabasePath)
	if err := database.SeedReferenceData(database.DB, config.Cfg.AdminUsername, config.Cfg.AdminPassword); err != nil {
		logger.L.Error("Failed to seed reference data", "error", err)
		stdlog.Fatalf("Failed to seed reference data: %v", err)
	}

	path := *inputPath
	if path == "" {
		path = config.Cfg.SMSXMLPath
	}

	pipeline := &etl.Pipeline{
		Extractor:  etl.NewExtractor(config.Cfg.SMSSenderAddress),
		Normalizer: etl.NewNormalizer(),
		Classifier: etl.NewClassifier(config.Cfg.DefaultCurrency),
		Loader:     etl.NewLoader(database.DB),
		StageDir:   config.Cfg.StageDir,
	}

	summary, err := pipeline.Run(path)
	if err != nil {
		logger.L.Error("Pipeline failed", "runID", summary.RunID, "error", err)
		stdlog.Fatalf("Pipeline failed: %v", err)
	}

	logger.L.Info("Pipeline completed",
		"runID", summary.RunID,
		"extracted", summary.Extracted,
		"normalized", summary.Normalized,
		"normalizerSkipped", summary.NormalizerSkipped,
		"classified", summary.Classified,
		"classifierSkipped", summary.ClassifierSkipped,
		"loaded", summary.Loaded,
		"loaderSkipped", summary.LoaderSkipped)
}
