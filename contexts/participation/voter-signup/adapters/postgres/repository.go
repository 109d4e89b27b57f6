package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
	"civicvote/contexts/participation/voter-signup/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetElectionAccess(ctx context.Context, slug string) (entities.ElectionAccess, error) {
	var row electionModel
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionAccess{}, domainerrors.ErrElectionNotFound
		}
		return entities.ElectionAccess{}, r.logError("signup_repo_get_election_failed", err, "slug", slug)
	}
	return row.toEntity()
}

func (r *Repository) FindCode(ctx context.Context, electionID, code string) (entities.AccessCode, error) {
	var row codeModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND code = ?", electionID, code).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AccessCode{}, domainerrors.ErrCodeNotFound
		}
		return entities.AccessCode{}, r.logError("signup_repo_find_code_failed", err, "election_id", electionID)
	}
	return entities.AccessCode{
		CodeID:     row.ID,
		ElectionID: row.ElectionID,
		Code:       row.Code,
		Void:       row.Void,
	}, nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).Where("id = ?", voterID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("signup_repo_get_voter_failed", err, "voter_id", voterID)
	}
	return row.toEntity()
}

func (r *Repository) FindVoterByIdentity(ctx context.Context, electionID, authMethod, authID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND authentication_method = ? AND authentication_id = ?", electionID, authMethod, authID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("signup_repo_find_voter_failed", err, "election_id", electionID)
	}
	return row.toEntity()
}

func (r *Repository) CreateVoter(ctx context.Context, voter entities.Voter) error {
	data := []byte("{}")
	if len(voter.Data) > 0 {
		encoded, err := json.Marshal(voter.Data)
		if err != nil {
			return fmt.Errorf("encode voter data: %w", err)
		}
		data = encoded
	}
	row := voterModel{
		ID:                   voter.VoterID,
		ElectionID:           voter.ElectionID,
		AuthenticationMethod: voter.AuthMethod,
		AuthenticationID:     voter.AuthID,
		Test:                 voter.Test,
		IPAddress:            voter.IPAddress,
		UserAgent:            voter.UserAgent,
		LocationID:           voter.LocationID,
		Data:                 data,
		CreatedAt:            voter.CreatedAt,
		UpdatedAt:            voter.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// The identity unique index lost a race with a concurrent signup
		// for the same credential.
		if isUniqueViolation(err) {
			return domainerrors.ErrUsedCode
		}
		return r.logError("signup_repo_create_voter_failed", err, "voter_id", voter.VoterID)
	}
	return nil
}

func (r *Repository) SetConfirmationCode(ctx context.Context, voterID, code string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("id = ?", voterID).
		Updates(map[string]any{
			"confirmation_code":            code,
			"confirmation_code_created_at": at,
			"updated_at":                   at,
		})
	if result.Error != nil {
		return r.logError("signup_repo_set_confirmation_failed", result.Error, "voter_id", voterID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) MergeVoterData(ctx context.Context, voterID string, patch map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voterModel
		if err := tx.Where("id = ?", voterID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return r.logError("signup_repo_merge_data_read_failed", err, "voter_id", voterID)
		}
		data := map[string]any{}
		if len(row.Data) > 0 {
			if err := json.Unmarshal(row.Data, &data); err != nil {
				return fmt.Errorf("decode voter data: %w", err)
			}
		}
		for key, value := range patch {
			data[key] = value
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode voter data: %w", err)
		}
		return tx.Model(&voterModel{}).Where("id = ?", voterID).Update("data", encoded).Error
	})
}

func (r *Repository) Record(ctx context.Context, entry entities.ActivityEntry) error {
	row := activityModel{
		ID:         entry.ActivityID,
		ElectionID: entry.ElectionID,
		Kind:       entry.Kind,
		IPAddress:  entry.IPAddress,
		Note:       entry.Note,
		CreatedAt:  entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("signup_repo_record_activity_failed", err, "kind", entry.Kind)
	}
	return nil
}

func (r *Repository) CountSince(ctx context.Context, electionID, kind string, since time.Time, filter ports.ActivityFilter) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&activityModel{}).
		Where("election_id = ? AND kind = ? AND created_at >= ?", electionID, kind, since)
	if filter.Note != "" {
		query = query.Where("note = ?", filter.Note)
	}
	if filter.IPAddress != "" {
		query = query.Where("ip_address = ?", filter.IPAddress)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, r.logError("signup_repo_count_activity_failed", err, "kind", kind)
	}
	return count, nil
}

func (r *Repository) SaveRegistration(ctx context.Context, record entities.RegistrationRecord) error {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("encode registration answers: %w", err)
	}
	row := registrationModel{
		ID:         record.RecordID,
		ElectionID: record.ElectionID,
		VoterID:    record.VoterID,
		Answers:    answers,
		CreatedAt:  record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// One registration per voter; a re-submit overwrites the answers.
		if isUniqueViolation(err) {
			return r.db.WithContext(ctx).
				Model(&registrationModel{}).
				Where("voter_id = ?", record.VoterID).
				Update("answers", answers).Error
		}
		return r.logError("signup_repo_save_registration_failed", err, "voter_id", record.VoterID)
	}
	return nil
}

func (r *Repository) GetRegistrationByVoter(ctx context.Context, voterID string) (entities.RegistrationRecord, error) {
	var row registrationModel
	err := r.db.WithContext(ctx).Where("voter_id = ?", voterID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RegistrationRecord{}, domainerrors.ErrRegistrationNotFound
		}
		return entities.RegistrationRecord{}, r.logError("signup_repo_get_registration_failed", err, "voter_id", voterID)
	}
	var answers map[string]string
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return entities.RegistrationRecord{}, fmt.Errorf("decode registration answers: %w", err)
		}
	}
	return entities.RegistrationRecord{
		RecordID:   row.ID,
		ElectionID: row.ElectionID,
		VoterID:    row.VoterID,
		Answers:    answers,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (r *Repository) Enqueue(ctx context.Context, notification entities.Notification) error {
	row := notificationModel{
		ID:         notification.NotificationID,
		ElectionID: notification.ElectionID,
		VoterID:    notification.VoterID,
		Phone:      notification.Phone,
		Body:       notification.Body,
		Status:     notification.Status,
		CreatedAt:  notification.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("signup_repo_enqueue_failed", err, "voter_id", notification.VoterID)
	}
	return nil
}

func (r *Repository) ListPending(ctx context.Context, limit int) ([]entities.Notification, error) {
	var rows []notificationModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", entities.NotificationPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("signup_repo_list_pending_failed", err)
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkSent(ctx context.Context, notificationID string, at time.Time) error {
	return r.markNotification(ctx, notificationID, map[string]any{
		"status":   entities.NotificationSent,
		"attempts": gorm.Expr("attempts + 1"),
		"sent_at":  at,
	})
}

func (r *Repository) MarkFailed(ctx context.Context, notificationID string, _ time.Time, reason string) error {
	return r.markNotification(ctx, notificationID, map[string]any{
		"status":     entities.NotificationFailed,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	})
}

func (r *Repository) markNotification(ctx context.Context, notificationID string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ?", notificationID).
		Updates(updates)
	if result.Error != nil {
		return r.logError("signup_repo_mark_notification_failed", result.Error, "notification_id", notificationID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "participation/voter-signup",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("signup repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ElectionDirectory      = (*Repository)(nil)
	_ ports.CodeRepository         = (*Repository)(nil)
	_ ports.VoterDirectory         = (*Repository)(nil)
	_ ports.ActivityLog            = (*Repository)(nil)
	_ ports.RegistrationRepository = (*Repository)(nil)
	_ ports.NotificationOutbox     = (*Repository)(nil)
)
