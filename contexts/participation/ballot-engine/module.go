package ballotengine

import (
	"log/slog"

	httpadapter "civicvote/contexts/participation/ballot-engine/adapters/http"
	"civicvote/contexts/participation/ballot-engine/adapters/memory"
	"civicvote/contexts/participation/ballot-engine/application/commands"
	"civicvote/contexts/participation/ballot-engine/application/queries"
	"civicvote/contexts/participation/ballot-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Elections ports.ElectionRepository
	Voters    ports.VoterRepository
	Votes     ports.VoteStore
	Results   ports.ResultsReader
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Rand      ports.Rand
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ballotUseCase := commands.BallotUseCase{
		Elections: deps.Elections,
		Voters:    deps.Voters,
		Votes:     deps.Votes,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Rand:      deps.Rand,
		Logger:    deps.Logger,
	}
	pageUseCase := queries.PageUseCase{
		Elections: deps.Elections,
		Voters:    deps.Voters,
		Rand:      deps.Rand,
		Logger:    deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Elections: deps.Elections,
		Votes:     deps.Results,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ballots: ballotUseCase,
			Pages:   pageUseCase,
			Results: resultsUseCase,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections: store,
		Voters:    store,
		Votes:     store,
		Results:   store,
		Clock:     store,
		IDGen:     store,
		Rand:      store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
