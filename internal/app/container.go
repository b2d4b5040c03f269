// Package app assembles the application object graph.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/hanguru/internal/adapter/repository"
	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/infrastructure/config"
	"github.com/eslsoft/hanguru/internal/infrastructure/database"
	"github.com/eslsoft/hanguru/internal/infrastructure/logging"
	"github.com/eslsoft/hanguru/internal/infrastructure/probe"
	"github.com/eslsoft/hanguru/internal/repository"
	"github.com/eslsoft/hanguru/internal/usecase/archive"
	"github.com/eslsoft/hanguru/internal/usecase/integrity"
	"github.com/eslsoft/hanguru/internal/usecase/review"
	"github.com/eslsoft/hanguru/internal/usecase/validation"
)

// Container aggregates the application dependencies.
type Container struct {
	Config       *config.Config
	Logger       *logrus.Logger
	Validator    *validation.Validator
	Integrity    *integrity.Service
	Review       *review.Engine
	Archive      *archive.Service
	ArchiveStore repository.ArchiveStore
}

// Initialize builds the application container from configuration.
func Initialize() (*Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return build(cfg)
}

func build(cfg *config.Config) (*Container, func(), error) {
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, cleanup, err := database.NewConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	archiveStore, err := adapterrepo.NewGormArchiveStore(db)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	validator := validation.NewValidator()

	tools := probe.New(
		logger,
		probe.WithBinary(cfg.Assets.ProbeBinary),
		probe.WithTimeout(cfg.Assets.ProbeTimeout),
	)
	checker := integrity.NewService(
		logger,
		tools,
		integrity.WithWorkers(cfg.Assets.Workers),
		integrity.WithLimits(assetLimits(cfg)),
		integrity.WithBaselineFilename(cfg.Assets.BaselineFile),
	)

	directory, err := reviewerDirectory(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	submissionStore, err := adapterrepo.NewGormSubmissionStore(db)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	engine := review.NewEngine(
		submissionStore,
		archiveStore,
		directory,
		validator,
		review.Config{
			MaxReviewCycles:      cfg.Review.MaxCycles,
			MinQualityScore:      cfg.Review.MinQualityScore,
			AutoApproveThreshold: cfg.Review.AutoApproveThreshold,
		},
		logger,
		review.WithAssetChecker(checker),
	)

	transfer, err := archive.NewService(archiveStore)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Validator:    validator,
		Integrity:    checker,
		Review:       engine,
		Archive:      transfer,
		ArchiveStore: archiveStore,
	}, cleanup, nil
}

func assetLimits(cfg *config.Config) integrity.Limits {
	limits := integrity.DefaultLimits()
	if cfg.Assets.MaxAudioBytes > 0 {
		limits.MaxAudioBytes = cfg.Assets.MaxAudioBytes
	}
	if cfg.Assets.MaxImageBytes > 0 {
		limits.MaxImageBytes = cfg.Assets.MaxImageBytes
	}
	if cfg.Assets.MaxVideoBytes > 0 {
		limits.MaxVideoBytes = cfg.Assets.MaxVideoBytes
	}
	if cfg.Assets.MaxSVGBytes > 0 {
		limits.MaxSVGBytes = cfg.Assets.MaxSVGBytes
	}
	if cfg.Assets.MaxImageDimension > 0 {
		limits.MaxImageDimension = cfg.Assets.MaxImageDimension
	}
	if cfg.Assets.MinSampleRate > 0 {
		limits.MinSampleRate = cfg.Assets.MinSampleRate
	}
	return limits
}

func reviewerDirectory(cfg *config.Config) (*adapterrepo.StaticReviewerDirectory, error) {
	pools := make(map[entity.ReviewerType][]string, len(cfg.Review.Reviewers))
	for role, ids := range cfg.Review.Reviewers {
		switch rt := entity.ReviewerType(role); rt {
		case entity.ReviewerTechnical, entity.ReviewerContent, entity.ReviewerCultural, entity.ReviewerNativeSpeaker:
			pools[rt] = ids
		default:
			return nil, fmt.Errorf("unknown reviewer role %q in config", role)
		}
	}
	return adapterrepo.NewStaticReviewerDirectory(pools), nil
}
