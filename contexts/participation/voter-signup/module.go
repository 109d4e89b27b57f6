package votersignup

import (
	"log/slog"

	httpadapter "civicvote/contexts/participation/voter-signup/adapters/http"
	"civicvote/contexts/participation/voter-signup/adapters/memory"
	"civicvote/contexts/participation/voter-signup/application/commands"
	"civicvote/contexts/participation/voter-signup/application/workers"
	"civicvote/contexts/participation/voter-signup/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.SMSRelay
	Store   *memory.Store
}

type Dependencies struct {
	Elections     ports.ElectionDirectory
	Codes         ports.CodeRepository
	Voters        ports.VoterDirectory
	Activity      ports.ActivityLog
	Registrations ports.RegistrationRepository
	Outbox        ports.NotificationOutbox
	Sender        ports.SMSSender
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Rand          ports.Rand
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	signupUseCase := commands.SignupUseCase{
		Elections:     deps.Elections,
		Codes:         deps.Codes,
		Voters:        deps.Voters,
		Activity:      deps.Activity,
		Registrations: deps.Registrations,
		Outbox:        deps.Outbox,
		Sender:        deps.Sender,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		Rand:          deps.Rand,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Signups: signupUseCase,
			Logger:  deps.Logger,
		},
		Relay: workers.SMSRelay{
			Outbox: deps.Outbox,
			Sender: deps.Sender,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections:     store,
		Codes:         store,
		Voters:        store,
		Activity:      store,
		Registrations: store,
		Outbox:        store,
		Sender:        memory.NopSender{},
		Clock:         store,
		IDGen:         store,
		Rand:          store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
