package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"veryus/internal/models"
	"veryus/internal/utils"
)

// ContestService runs contests: lifecycle, grade submission and results.
type ContestService struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

func NewContestService(db *gorm.DB, log zerolog.Logger) *ContestService {
	return &ContestService{db: db, log: log.With().Str("component", "contests").Logger(), now: time.Now}
}

type ContestInput struct {
	Title    string             `json:"title"`
	Type     models.ContestType `json:"type"`
	Deadline time.Time          `json:"deadline"`
}

type GradeInput struct {
	Target  string  `json:"target"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// ContestResults is the scoreboard of one contest. Once the contest has ended, Top comes from
// the snapshot frozen at that moment.
type ContestResults struct {
	Contest models.Contest `json:"contest"`
	Aggregation
	Frozen bool `json:"frozen"`
}

func requireStaff(actor *models.Session) error {
	if actor == nil {
		return utils.NewAppError(utils.ErrUnauthorized, "login required", nil)
	}
	if !utils.IsPrivileged(actor.Role) {
		return utils.Forbidden("staff only")
	}
	return nil
}

// StoreError passes AppErrors through and reports anything else as a store failure.
func StoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.Unavailable(message, err)
}

func (s *ContestService) Create(ctx context.Context, actor *models.Session, in ContestInput) (*models.Contest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, utils.InvalidInput("title is required")
	}
	if !in.Type.Valid() {
		return nil, utils.InvalidInput("unknown contest type %q", in.Type)
	}
	if in.Deadline.IsZero() || in.Deadline.Before(s.now()) {
		return nil, utils.InvalidInput("deadline must be in the future")
	}

	contest := models.Contest{
		Title:     in.Title,
		Type:      in.Type,
		Deadline:  in.Deadline,
		CreatedBy: actor.UserID,
		Results:   []models.RankEntry{},
	}
	if err := s.db.WithContext(ctx).Create(&contest).Error; err != nil {
		return nil, utils.Unavailable("create contest", err)
	}
	s.log.Info().Str("contest", contest.ID).Str("actor", actor.UserID).Msg("contest created")
	return &contest, nil
}

func (s *ContestService) List(ctx context.Context) ([]models.Contest, error) {
	var contests []models.Contest
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&contests).Error; err != nil {
		return nil, utils.Unavailable("list contests", err)
	}
	return contests, nil
}

func (s *ContestService) Get(ctx context.Context, id string) (*models.Contest, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *ContestService) load(tx *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := tx.First(&contest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("contest not found")
		}
		return nil, utils.Unavailable("load contest", err)
	}
	return &contest, nil
}

// Start opens grading.
func (s *ContestService) Start(ctx context.Context, actor *models.Session, id string) (*models.Contest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	contest, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if contest.Ended {
		return nil, utils.Conflict("contest already ended")
	}
	if contest.Started {
		return contest, nil
	}
	if err := s.db.WithContext(ctx).Model(contest).Update("started", true).Error; err != nil {
		return nil, utils.Unavailable("start contest", err)
	}
	contest.Started = true
	s.log.Info().Str("contest", id).Str("actor", actor.UserID).Msg("contest started")
	return contest, nil
}

// End closes grading and freezes the top ranking.
func (s *ContestService) End(ctx context.Context, actor *models.Session, id string) (*models.Contest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	var contest *models.Contest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if contest, err = s.load(tx, id); err != nil {
			return err
		}
		if !contest.Started {
			return utils.Conflict("contest has not started")
		}
		if contest.Ended {
			return utils.Conflict("contest already ended")
		}
		grades, err := s.grades(tx, id)
		if err != nil {
			return err
		}
		contest.Results = AggregateGrades(grades).Top
		contest.Ended = true
		return tx.Model(contest).Select("ended", "results").Updates(contest).Error
	})
	if err != nil {
		return nil, StoreError(err, "end contest")
	}
	s.log.Info().Str("contest", id).Int("ranked", len(contest.Results)).Msg("contest ended")
	return contest, nil
}

func (s *ContestService) grades(tx *gorm.DB, contestID string) ([]models.ContestGrade, error) {
	var grades []models.ContestGrade
	if err := tx.Where("contest_id = ?", contestID).Order("seq asc, created_at asc, id asc").Find(&grades).Error; err != nil {
		return nil, utils.Unavailable("load grades", err)
	}
	return grades, nil
}

// SubmitGrade records actor's score for one target. Each evaluator grades a target once.
func (s *ContestService) SubmitGrade(ctx context.Context, actor *models.Session, contestID string, in GradeInput) (*models.ContestGrade, error) {
	if actor == nil {
		return nil, utils.NewAppError(utils.ErrUnauthorized, "login required", nil)
	}
	in.Target = strings.TrimSpace(in.Target)
	if in.Target == "" {
		return nil, utils.InvalidInput("target is required")
	}
	if in.Score < 0 || in.Score > 100 {
		return nil, utils.InvalidInput("score must be between 0 and 100")
	}

	var grade models.ContestGrade
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The contest row lock orders concurrent submissions, which keeps Seq gapless.
		contest, err := s.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), contestID)
		if err != nil {
			return err
		}
		if !contest.Started {
			return utils.Conflict("contest has not started")
		}
		if contest.Ended {
			return utils.DeadlinePassed("contest has ended")
		}
		if s.now().After(contest.Deadline) {
			return utils.DeadlinePassed("grading deadline has passed")
		}

		var existing int64
		if err := tx.Model(&models.ContestGrade{}).
			Where("contest_id = ? AND evaluator_uid = ? AND target = ?", contestID, actor.UserID, in.Target).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return utils.Conflict("you already graded %s", in.Target)
		}

		var last int64
		if err := tx.Model(&models.ContestGrade{}).
			Where("contest_id = ?", contestID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		grade = models.ContestGrade{
			ContestID:     contestID,
			EvaluatorUID:  actor.UserID,
			Evaluator:     actor.Nickname,
			Target:        in.Target,
			Score:         in.Score,
			Comment:       strings.TrimSpace(in.Comment),
			EvaluatorRole: actor.Role,
			Seq:           last + 1,
		}
		if err := tx.Create(&grade).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict("you already graded %s", in.Target)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "submit grade")
	}
	return &grade, nil
}

// Results returns the scoreboard visible to every member.
func (s *ContestService) Results(ctx context.Context, id string) (*ContestResults, error) {
	tx := s.db.WithContext(ctx)
	contest, err := s.load(tx, id)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades(tx, id)
	if err != nil {
		return nil, err
	}
	res := &ContestResults{Contest: *contest, Aggregation: AggregateGrades(grades)}
	if contest.Ended {
		res.Top = contest.Results
		if res.Top == nil {
			res.Top = []models.RankEntry{}
		}
		res.Frozen = true
	}
	return res, nil
}

// PrivilegedResults aggregates only the grades given by evaluators with role. Staff only.
func (s *ContestService) PrivilegedResults(ctx context.Context, actor *models.Session, id, role string) (*ContestResults, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !utils.ValidRole(role) {
		return nil, utils.InvalidInput("unknown role %q", role)
	}
	tx := s.db.WithContext(ctx)
	contest, err := s.load(tx, id)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades(tx, id)
	if err != nil {
		return nil, err
	}
	return &ContestResults{Contest: *contest, Aggregation: AggregateByRole(grades, role)}, nil
}
