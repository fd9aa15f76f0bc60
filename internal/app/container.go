package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/vocsync/internal/adapter/repository"
	"github.com/eslsoft/vocsync/internal/adapter/rest"
	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/database"
	"github.com/eslsoft/vocsync/internal/infrastructure/server"
	"github.com/eslsoft/vocsync/internal/usecase"
)

// Container aggregates the application dependencies.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Server *server.Server
	Corpus *adapterrepo.Corpus

	Sync        usecase.SyncUsecase
	Collections usecase.CollectionUsecase
	Sharing     usecase.SharingUsecase
	Lessons     usecase.LessonUsecase
	Quiz        usecase.QuizUsecase
}

// Initialize builds the full dependency graph. The returned cleanup releases
// every acquired resource in reverse order.
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB, err := database.NewBadgerDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeDB)

	mongoDB, closeMongo, err := database.NewMongoDatabase(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeMongo)

	definitionCache, err := adapterrepo.NewDefinitionCache(cfg.Corpus.CachePath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { _ = definitionCache.Close() })

	corpus, err := adapterrepo.NewCorpus(ctx, cfg.Corpus.Path, definitionCache, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}

	stateStore := adapterrepo.NewStateStore(db, logger)
	userDocs := adapterrepo.NewUserDocumentRepository(mongoDB)
	sharedRepo := adapterrepo.NewSharedCollectionRepository(mongoDB)

	syncUC := usecase.NewSyncUsecase(stateStore, userDocs, logger)
	sharingUC := usecase.NewSharingUsecase(syncUC, sharedRepo, logger)
	collectionsUC := usecase.NewCollectionUsecase(syncUC, sharingUC, logger)
	lessonsUC := usecase.NewLessonUsecase(corpus, syncUC, logger)
	quizUC := usecase.NewQuizUsecase(corpus, syncUC, logger)

	handler := rest.NewHandler(syncUC, collectionsUC, sharingUC, lessonsUC, quizUC, corpus, logger)
	router := rest.NewRouter(handler, logger)
	srv := server.NewServer(cfg, router, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Server:      srv,
		Corpus:      corpus,
		Sync:        syncUC,
		Collections: collectionsUC,
		Sharing:     sharingUC,
		Lessons:     lessonsUC,
		Quiz:        quizUC,
	}, cleanup, nil
}
