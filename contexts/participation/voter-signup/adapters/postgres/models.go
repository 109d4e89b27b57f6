package postgresadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"civicvote/contexts/participation/voter-signup/domain/entities"
)

// electionModel maps the signup-facing slice of the elections table. The
// ballot engine maps the same table through its own model; this one only
// decodes the flags signup cares about.
type electionModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Slug   string `gorm:"column:slug;uniqueIndex"`
	Config []byte `gorm:"column:config;type:jsonb"`
}

func (electionModel) TableName() string {
	return "elections"
}

type electionAccessConfig struct {
	Workflow                      [][]string `json:"workflow"`
	AllowRemoteVoting             bool       `json:"allow_remote_voting"`
	RemoteVotingSMSVerification   bool       `json:"remote_voting_sms_verification"`
	RemoteVotingCodeVerification  bool       `json:"remote_voting_code_verification"`
	RemoteVotingOtherVerification bool       `json:"remote_voting_other_verification"`
	StopAcceptingVotes            bool       `json:"stop_accepting_votes"`
	VoterRegistration             bool       `json:"voter_registration"`
	SendVoteSMS                   bool       `json:"send_vote_sms"`
	RegistrationQuestions         []string   `json:"voter_registration_questions"`
}

func (m electionModel) toEntity() (entities.ElectionAccess, error) {
	var cfg electionAccessConfig
	if len(m.Config) > 0 {
		if err := json.Unmarshal(m.Config, &cfg); err != nil {
			return entities.ElectionAccess{}, fmt.Errorf("decode election config: %w", err)
		}
	}
	firstStage := ""
	if len(cfg.Workflow) > 0 && len(cfg.Workflow[0]) > 0 {
		firstStage = cfg.Workflow[0][0]
	}
	return entities.ElectionAccess{
		ElectionID:            m.ID,
		Slug:                  m.Slug,
		AllowRemoteVoting:     cfg.AllowRemoteVoting,
		StopAcceptingVotes:    cfg.StopAcceptingVotes,
		RemoteVotingSMS:       cfg.RemoteVotingSMSVerification,
		RemoteVotingCode:      cfg.RemoteVotingCodeVerification,
		RemoteVotingOther:     cfg.RemoteVotingOtherVerification,
		VoterRegistration:     cfg.VoterRegistration,
		SendVoteSMS:           cfg.SendVoteSMS,
		RegistrationQuestions: cfg.RegistrationQuestions,
		FirstStage:            firstStage,
	}, nil
}

type codeModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	ElectionID string `gorm:"column:election_id;uniqueIndex:idx_codes_election_code"`
	Code       string `gorm:"column:code;uniqueIndex:idx_codes_election_code"`
	Void       bool   `gorm:"column:void"`
}

func (codeModel) TableName() string {
	return "codes"
}

type voterModel struct {
	ID                        string     `gorm:"column:id;primaryKey"`
	ElectionID                string     `gorm:"column:election_id;uniqueIndex:idx_voters_identity"`
	AuthenticationMethod      string     `gorm:"column:authentication_method;uniqueIndex:idx_voters_identity"`
	AuthenticationID          string     `gorm:"column:authentication_id;uniqueIndex:idx_voters_identity"`
	Stage                     *string    `gorm:"column:stage"`
	Test                      bool       `gorm:"column:test"`
	Void                      bool       `gorm:"column:void"`
	IPAddress                 string     `gorm:"column:ip_address"`
	UserAgent                 string     `gorm:"column:user_agent"`
	LocationID                string     `gorm:"column:location_id"`
	ConfirmationCode          string     `gorm:"column:confirmation_code"`
	ConfirmationCodeCreatedAt *time.Time `gorm:"column:confirmation_code_created_at"`
	Data                      []byte     `gorm:"column:data;type:jsonb"`
	CreatedAt                 time.Time  `gorm:"column:created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func (m voterModel) toEntity() (entities.Voter, error) {
	var data map[string]any
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &data); err != nil {
			return entities.Voter{}, fmt.Errorf("decode voter data: %w", err)
		}
	}
	stage := ""
	if m.Stage != nil {
		stage = *m.Stage
	}
	return entities.Voter{
		VoterID:                   m.ID,
		ElectionID:                m.ElectionID,
		AuthMethod:                m.AuthenticationMethod,
		AuthID:                    m.AuthenticationID,
		Stage:                     stage,
		Test:                      m.Test,
		Void:                      m.Void,
		IPAddress:                 m.IPAddress,
		UserAgent:                 m.UserAgent,
		LocationID:                m.LocationID,
		ConfirmationCode:          m.ConfirmationCode,
		ConfirmationCodeCreatedAt: m.ConfirmationCodeCreatedAt,
		Data:                      data,
		CreatedAt:                 m.CreatedAt,
	}, nil
}

type activityModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index:idx_activity_lookup"`
	Kind       string    `gorm:"column:kind;index:idx_activity_lookup"`
	IPAddress  string    `gorm:"column:ip_address"`
	Note       string    `gorm:"column:note"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_activity_lookup"`
}

func (activityModel) TableName() string {
	return "activity_log"
}

type registrationModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index"`
	VoterID    string    `gorm:"column:voter_id;uniqueIndex"`
	Answers    []byte    `gorm:"column:answers;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (registrationModel) TableName() string {
	return "voter_registration_records"
}

type notificationModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	ElectionID string     `gorm:"column:election_id"`
	VoterID    string     `gorm:"column:voter_id"`
	Phone      string     `gorm:"column:phone"`
	Body       string     `gorm:"column:body"`
	Status     string     `gorm:"column:status;index"`
	Attempts   int        `gorm:"column:attempts"`
	LastError  string     `gorm:"column:last_error"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (notificationModel) TableName() string {
	return "sms_notifications"
}

func (m notificationModel) toEntity() entities.Notification {
	return entities.Notification{
		NotificationID: m.ID,
		ElectionID:     m.ElectionID,
		VoterID:        m.VoterID,
		Phone:          m.Phone,
		Body:           m.Body,
		Status:         m.Status,
		Attempts:       m.Attempts,
		LastError:      m.LastError,
		CreatedAt:      m.CreatedAt,
		SentAt:         m.SentAt,
	}
}
