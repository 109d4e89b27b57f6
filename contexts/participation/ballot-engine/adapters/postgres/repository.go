package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	"civicvote/contexts/participation/ballot-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) GetElectionBySlug(ctx context.Context, slug string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("ballot_repo_get_election_failed", err, "slug", slug)
	}
	return row.toEntity()
}

func (r *Repository) ListProjects(ctx context.Context, electionID string) ([]entities.Project, error) {
	var rows []projectModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_projects_failed", err, "election_id", electionID)
	}
	items := make([]entities.Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListCategories(ctx context.Context, electionID string) ([]entities.Category, error) {
	var rows []categoryModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("sort_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_categories_failed", err, "election_id", electionID)
	}
	items := make([]entities.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).Where("id = ?", voterID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.logError("ballot_repo_get_voter_failed", err, "voter_id", voterID)
	}
	return row.toEntity()
}

func (r *Repository) UpdateVoterData(ctx context.Context, voterID string, patch map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voterModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", voterID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return r.logError("ballot_repo_lock_voter_failed", err, "voter_id", voterID)
		}
		merged, err := mergeVoterData(row.Data, patch)
		if err != nil {
			return r.logError("ballot_repo_merge_voter_data_failed", err, "voter_id", voterID)
		}
		return tx.Model(&voterModel{}).
			Where("id = ?", voterID).
			Updates(map[string]any{
				"data":       merged,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// AdvanceStage locks the voter row so the gate is evaluated against the
// latest durable stage, preventing the lost-update race between two
// near-simultaneous requests for the same voter.
func (r *Repository) AdvanceStage(
	ctx context.Context,
	voterID string,
	target entities.Stage,
	gate func(recorded entities.Stage) (bool, entities.Stage),
	at time.Time,
) (ports.AdvanceOutcome, error) {
	var outcome ports.AdvanceOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row voterModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", voterID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVoterNotFound
			}
			return err
		}
		recorded := entities.Stage("")
		if row.Stage != nil {
			recorded = entities.Stage(*row.Stage)
		}
		allowed, redirect := gate(recorded)
		if !allowed {
			outcome = ports.AdvanceOutcome{Redirect: redirect}
			return nil
		}
		merged, err := mergeVoterData(row.Data, map[string]any{
			"timestamps": map[string]int64{string(target): at.Unix()},
		})
		if err != nil {
			return err
		}
		stage := string(target)
		if err := tx.Model(&voterModel{}).
			Where("id = ?", voterID).
			Updates(map[string]any{
				"stage":      stage,
				"data":       merged,
				"updated_at": at.UTC(),
			}).Error; err != nil {
			return err
		}
		outcome = ports.AdvanceOutcome{Advanced: true}
		return nil
	})
	if err != nil && !errors.Is(err, domainerrors.ErrVoterNotFound) {
		return ports.AdvanceOutcome{}, r.logError("ballot_repo_advance_stage_failed", err,
			"voter_id", voterID,
			"target_stage", string(target),
		)
	}
	return outcome, err
}

// CommitBatch runs the duplicate-scope guard, the inserts, and the
// constraint check inside one transaction. The unique index on
// (voter_id, project_id) is the authoritative guard: a violation at commit
// time reports a duplicate instead of an error.
func (r *Repository) CommitBatch(
	ctx context.Context,
	voter entities.Voter,
	scope ports.Scope,
	records []ports.BallotRecord,
	check func() error,
) (ports.CommitOutcome, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := r.scopeHasRecords(tx, voter.VoterID, scope)
		if err != nil {
			return err
		}
		if exists {
			return domainerrors.ErrDuplicateSubmission
		}

		now := time.Now().UTC()
		for _, record := range records {
			if err := r.insertRecord(tx, voter.VoterID, scope.Method, record, now); err != nil {
				return err
			}
		}
		return check()
	})
	switch {
	case err == nil:
		return ports.CommitCommitted, nil
	case errors.Is(err, domainerrors.ErrDuplicateSubmission):
		return ports.CommitDuplicate, nil
	case domainerrors.IsConstraintViolation(err):
		return ports.CommitRejected, err
	default:
		return "", r.logError("ballot_repo_commit_batch_failed", err,
			"voter_id", voter.VoterID,
			"method", string(scope.Method),
		)
	}
}

func (r *Repository) scopeHasRecords(tx *gorm.DB, voterID string, scope ports.Scope) (bool, error) {
	var count int64
	if scope.Method == entities.MethodKnapsack {
		if err := tx.Model(&voteKnapsackModel{}).
			Where("voter_id = ?", voterID).
			Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
	query := tx.Model(&voteApprovalModel{}).Where("voter_id = ?", voterID)
	if len(scope.ProjectIDs) > 0 {
		query = query.Where("project_id IN ?", scope.ProjectIDs)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) insertRecord(
	tx *gorm.DB,
	voterID string,
	method entities.Method,
	record ports.BallotRecord,
	at time.Time,
) error {
	var err error
	if method == entities.MethodKnapsack {
		err = tx.Create(&voteKnapsackModel{
			ID:        uuid.NewString(),
			VoterID:   voterID,
			ProjectID: record.ProjectID,
			Cost:      record.Cost,
			CreatedAt: at,
		}).Error
	} else {
		err = tx.Create(&voteApprovalModel{
			ID:        uuid.NewString(),
			VoterID:   voterID,
			ProjectID: record.ProjectID,
			Cost:      record.Cost,
			Rank:      record.Rank,
			CreatedAt: at,
		}).Error
	}
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrDuplicateSubmission
	}
	return err
}

func (r *Repository) CommitComparison(
	ctx context.Context,
	voter entities.Voter,
	record entities.VoteComparison,
	pairCap int,
) (ports.CommitOutcome, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&voteComparisonModel{}).
			Where("voter_id = ?", voter.VoterID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(pairCap) {
			return domainerrors.ErrDuplicateSubmission
		}
		return tx.Create(&voteComparisonModel{
			ID:                record.RecordID,
			VoterID:           record.VoterID,
			FirstProjectID:    record.FirstProjectID,
			FirstProjectCost:  record.FirstProjectCost,
			SecondProjectID:   record.SecondProjectID,
			SecondProjectCost: record.SecondProjectCost,
			Result:            string(record.Result),
			CreatedAt:         record.CreatedAt.UTC(),
		}).Error
	})
	switch {
	case err == nil:
		return ports.CommitCommitted, nil
	case errors.Is(err, domainerrors.ErrDuplicateSubmission):
		return ports.CommitDuplicate, nil
	default:
		return "", r.logError("ballot_repo_commit_comparison_failed", err, "voter_id", voter.VoterID)
	}
}

func (r *Repository) CountComparisons(ctx context.Context, voterID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteComparisonModel{}).
		Where("voter_id = ?", voterID).
		Count(&count).Error; err != nil {
		return 0, r.logError("ballot_repo_count_comparisons_failed", err, "voter_id", voterID)
	}
	return int(count), nil
}

func (r *Repository) ListCommittedApprovals(ctx context.Context, electionID string) ([]entities.VoteApproval, error) {
	var rows []voteApprovalModel
	err := r.db.WithContext(ctx).
		Table("vote_approvals AS va").
		Select("va.*").
		Joins("JOIN voters AS v ON v.id = va.voter_id").
		Where("v.election_id = ? AND v.void = ?", electionID, false).
		Order("va.created_at ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("ballot_repo_list_approvals_failed", err, "election_id", electionID)
	}
	items := make([]entities.VoteApproval, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.VoteApproval{
			RecordID:  row.ID,
			VoterID:   row.VoterID,
			ProjectID: row.ProjectID,
			Cost:      row.Cost,
			Rank:      row.Rank,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) CountEligibleVoters(ctx context.Context, electionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("election_id = ? AND void = ? AND test = ?", electionID, false, false).
		Where("stage IS NOT NULL AND stage <> ?", string(entities.StageApproval)).
		Count(&count).Error
	if err != nil {
		return 0, r.logError("ballot_repo_count_eligible_voters_failed", err, "election_id", electionID)
	}
	return int(count), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", "participation/ballot-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ballot repository operation failed", fields...)
	return err
}

func mergeVoterData(raw []byte, patch map[string]any) ([]byte, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode voter data: %w", err)
		}
	}
	for key, value := range patch {
		incoming, err := toStringKeyedMap(value)
		if err == nil {
			existing, _ := data[key].(map[string]any)
			combined := make(map[string]any, len(existing)+len(incoming))
			for k, v := range existing {
				combined[k] = v
			}
			for k, v := range incoming {
				combined[k] = v
			}
			data[key] = combined
			continue
		}
		data[key] = value
	}
	return json.Marshal(data)
}

// toStringKeyedMap normalizes the typed nested maps the application layer
// patches with (timestamps, workflow choices) for one-level-deep merging.
func toStringKeyedMap(value any) (map[string]any, error) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, nil
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, nil
	case map[string]int64:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, nil
	default:
		return nil, errors.New("not a string-keyed map")
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.VoterRepository = (*Repository)(nil)
var _ ports.VoteStore = (*Repository)(nil)
var _ ports.ResultsReader = (*Repository)(nil)
