package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ballotengine "civicvote/contexts/participation/ballot-engine"
	ballotpostgres "civicvote/contexts/participation/ballot-engine/adapters/postgres"
	ballotentities "civicvote/contexts/participation/ballot-engine/domain/entities"
	votersignup "civicvote/contexts/participation/voter-signup"
	signupmemory "civicvote/contexts/participation/voter-signup/adapters/memory"
	signuppostgres "civicvote/contexts/participation/voter-signup/adapters/postgres"
	signupredis "civicvote/contexts/participation/voter-signup/adapters/redis"
	"civicvote/contexts/participation/voter-signup/adapters/smshttp"
	signupworkers "civicvote/contexts/participation/voter-signup/application/workers"
	signupentities "civicvote/contexts/participation/voter-signup/domain/entities"
	signupports "civicvote/contexts/participation/voter-signup/ports"
	"civicvote/internal/platform/config"
	"civicvote/internal/platform/db"
	"civicvote/internal/platform/electionconfig"
	"civicvote/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	relay        signupworkers.SMSRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var (
		pg           *db.Postgres
		ballotModule ballotengine.Module
		signupModule votersignup.Module
	)

	sender := buildSender(cfg)

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		ballotRepo := ballotpostgres.NewRepository(pg.DB, logger)
		ballotModule = ballotengine.NewModule(ballotengine.Dependencies{
			Elections: ballotRepo,
			Voters:    ballotRepo,
			Votes:     ballotRepo,
			Results:   ballotRepo,
			Clock:     ballotpostgres.SystemClock{},
			IDGen:     ballotpostgres.UUIDGenerator{},
			Rand:      ballotpostgres.NewSystemRand(),
			Logger:    logger,
		})

		signupRepo := signuppostgres.NewRepository(pg.DB, logger)
		activity, err := buildActivityLog(cfg, signupRepo)
		if err != nil {
			return nil, err
		}
		signupModule = votersignup.NewModule(votersignup.Dependencies{
			Elections:     signupRepo,
			Codes:         signupRepo,
			Voters:        signupRepo,
			Activity:      activity,
			Registrations: signupRepo,
			Outbox:        signupRepo,
			Sender:        sender,
			Clock:         signuppostgres.SystemClock{},
			IDGen:         signuppostgres.UUIDGenerator{},
			Rand:          signuppostgres.NewSystemRand(),
			Logger:        logger,
		})
	} else {
		ballotModule = ballotengine.NewInMemoryModule(logger)
		signupModule = votersignup.NewInMemoryModule(logger)
		if cfg.ElectionsFile != "" {
			if err := seedMemory(cfg.ElectionsFile, ballotModule, signupModule); err != nil {
				return nil, err
			}
		}
		logger.Info("running with in-memory stores",
			"event", "bootstrap_memory_runtime",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"elections_file", cfg.ElectionsFile,
		)
	}

	server := httpserver.New(ballotModule, signupModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := signuppostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		relay: signupworkers.SMSRelay{
			Outbox:    repo,
			Sender:    buildSender(cfg),
			Clock:     signuppostgres.SystemClock{},
			BatchSize: cfg.WorkerBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.relay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func buildSender(cfg config.Config) signupports.SMSSender {
	if strings.TrimSpace(cfg.SMSGatewayURL) == "" {
		return signupmemory.NopSender{}
	}
	return smshttp.NewSender(cfg.SMSGatewayURL, cfg.SMSFrom)
}

func buildActivityLog(cfg config.Config, fallback signupports.ActivityLog) (signupports.ActivityLog, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return fallback, nil
	}
	client, err := signupredis.Client(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return signupredis.NewActivityLog(client), nil
}

// seedMemory loads election descriptors into both in-memory stores.
func seedMemory(path string, ballot ballotengine.Module, signup votersignup.Module) error {
	elections, err := electionconfig.Load(path)
	if err != nil {
		return err
	}
	for _, descriptor := range elections {
		ballot.Store.SetElection(toBallotElection(descriptor))
		for _, category := range descriptor.Categories {
			ballot.Store.AddCategory(ballotentities.Category{
				CategoryID:    category.ID,
				ElectionID:    descriptor.ID,
				Name:          category.Name,
				CategoryGroup: category.Group,
				SortOrder:     category.SortOrder,
			})
		}
		for _, project := range descriptor.Projects {
			ballot.Store.AddProject(ballotentities.Project{
				ProjectID:         project.ID,
				ElectionID:        descriptor.ID,
				CategoryID:        project.CategoryID,
				Title:             project.Title,
				Cost:              project.Cost,
				Mandatory:         project.Mandatory,
				AdjustableCost:    project.AdjustableCost,
				CostMin:           project.CostMin,
				CostMax:           project.CostMax,
				CostStep:          project.CostStep,
				UsesSlider:        project.UsesSlider,
				ExternalVoteCount: project.ExternalVoteCount,
			})
		}

		signup.Store.SetElection(toSignupElection(descriptor))
		for _, code := range descriptor.Codes {
			signup.Store.AddCode(signupentities.AccessCode{
				CodeID:     code.ID,
				ElectionID: descriptor.ID,
				Code:       code.Code,
				Void:       code.Void,
			})
		}
	}
	return nil
}

func toBallotElection(descriptor electionconfig.Election) ballotentities.Election {
	workflow := make(ballotentities.Workflow, 0, len(descriptor.Workflow))
	for _, slot := range descriptor.Workflow {
		alternatives := make([]ballotentities.Stage, 0, len(slot))
		for _, stage := range slot {
			alternatives = append(alternatives, ballotentities.Stage(stage))
		}
		workflow = append(workflow, ballotentities.WorkflowSlot{Alternatives: alternatives})
	}
	rules := make(map[ballotentities.Method]ballotentities.MethodRules, len(descriptor.Rules))
	for name, rc := range descriptor.Rules {
		rules[ballotentities.Method(name)] = ballotentities.MethodRules{
			HasBudgetLimit:  rc.HasBudgetLimit,
			HasProjectLimit: rc.HasProjectLimit,
			MinProjects:     rc.MinProjects,
			MaxProjects:     rc.MaxProjects,
			ProjectRanking:  rc.ProjectRanking,
			Pages:           rc.Pages,
			NPairs:          rc.NPairs,
			ShuffleProjects: rc.ShuffleProjects,
			ShuffleChance:   rc.ShuffleChance,
		}
	}
	return ballotentities.Election{
		ElectionID:                    descriptor.ID,
		Slug:                          descriptor.Slug,
		Budget:                        descriptor.Budget,
		Workflow:                      workflow,
		Rules:                         rules,
		Locales:                       descriptor.Locales,
		DefaultLocale:                 descriptor.DefaultLocale,
		AllowRemoteVoting:             descriptor.AllowRemoteVoting,
		RemoteVotingSMSVerification:   descriptor.RemoteVotingSMSVerification,
		RemoteVotingCodeVerification:  descriptor.RemoteVotingCodeVerification,
		RemoteVotingOtherVerification: descriptor.RemoteVotingOtherVerification,
		StopAcceptingVotes:            descriptor.StopAcceptingVotes,
		ShowPublicResults:             descriptor.ShowPublicResults,
		VoterRegistration:             descriptor.VoterRegistration,
		SendVoteSMS:                   descriptor.SendVoteSMS,
		RegistrationQuestions:         descriptor.RegistrationQuestions,
		ExternalRedirectURL:           descriptor.ExternalRedirectURL,
	}
}

func toSignupElection(descriptor electionconfig.Election) signupentities.ElectionAccess {
	firstStage := ""
	if len(descriptor.Workflow) > 0 && len(descriptor.Workflow[0]) > 0 {
		firstStage = descriptor.Workflow[0][0]
	}
	return signupentities.ElectionAccess{
		ElectionID:            descriptor.ID,
		Slug:                  descriptor.Slug,
		AllowRemoteVoting:     descriptor.AllowRemoteVoting,
		StopAcceptingVotes:    descriptor.StopAcceptingVotes,
		RemoteVotingSMS:       descriptor.RemoteVotingSMSVerification,
		RemoteVotingCode:      descriptor.RemoteVotingCodeVerification,
		RemoteVotingOther:     descriptor.RemoteVotingOtherVerification,
		VoterRegistration:     descriptor.VoterRegistration,
		SendVoteSMS:           descriptor.SendVoteSMS,
		RegistrationQuestions: descriptor.RegistrationQuestions,
		FirstStage:            firstStage,
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
