package entities

// ElectionAccess is the signup-facing projection of an election: the flags
// that gate each signup variant plus where an authenticated voter is sent
// next. Ballot rules stay out of this projection.
type ElectionAccess struct {
	ElectionID string
	Slug       string

	AllowRemoteVoting   bool
	StopAcceptingVotes  bool
	RemoteVotingSMS     bool
	RemoteVotingCode    bool
	RemoteVotingOther   bool
	VoterRegistration   bool
	SendVoteSMS         bool

	// RegistrationQuestions lists the question IDs the registration form
	// collects. The age_verify checkbox is gate-only and never stored.
	RegistrationQuestions []string

	// FirstStage is the entry stage of the voting workflow, used as the
	// post-signup redirect when registration is disabled.
	FirstStage string
}

// NextStep returns where a freshly authenticated voter goes: the
// registration form when the election collects one, otherwise straight
// into the workflow.
func (e ElectionAccess) NextStep() string {
	if e.VoterRegistration {
		return "registration"
	}
	return e.FirstStage
}
