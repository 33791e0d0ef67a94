// Package applicant implements the application workflow: accepting new
// applications and the read operations behind the admin dashboard.
package applicant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/events"
	"github.com/swayamsankar/intern-app/internal/metrics"
	"github.com/swayamsankar/intern-app/internal/query"
)

const (
	MsgSubmitted   = "Application submitted successfully"
	MsgEmailExists = "Email already exists"
	MsgNotFound    = "Applicant not found"
	MsgInternal    = "Internal server error"
)

// Stats metric names, as reported in Stats.Degraded.
const (
	MetricTotal      = "total"
	MetricInterns    = "interns"
	MetricVolunteers = "volunteers"
)

// Stats are the dashboard counts over the whole store. A count whose query
// failed is reported as 0 and named in Degraded.
type Stats struct {
	Total      int64    `json:"total"`
	Interns    int64    `json:"interns"`
	Volunteers int64    `json:"volunteers"`
	Degraded   []string `json:"degraded,omitempty"`
}

type Service struct {
	db        *gorm.DB
	validate  *validator.Validate
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

type Option func(*Service)

// WithPublisher sets where applicant-created events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(d *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:       d,
		validate: newValidator(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new application and returns its id.
func (s *Service) Create(ctx context.Context, in Input) (uint, error) {
	in = in.trimmed()
	if err := s.validate.Struct(in); err != nil {
		return 0, validationError(err)
	}

	record := in.record()
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return 0, common.NewError(common.CodeConflict, MsgEmailExists, err)
		}
		return 0, common.NewError(common.CodeInternal, MsgInternal, fmt.Errorf("create applicant: %w", err))
	}

	s.metrics.ApplicantCreated(string(record.PositionType))
	s.log.InfoContext(ctx, "application submitted",
		"id", record.ID,
		"position_type", record.PositionType,
		"department", record.Department,
	)
	s.notify(ctx, record)
	return record.ID, nil
}

// notify reports a stored application to listeners. The application is
// already committed, so failures are only logged.
func (s *Service) notify(ctx context.Context, a db.Applicant) {
	if s.publisher == nil {
		return
	}
	ev := events.ApplicantCreated{
		ID:           a.ID,
		PositionType: string(a.PositionType),
		Department:   a.Department,
		SubmittedAt:  a.SubmittedAt,
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.WarnContext(ctx, "failed to publish applicant event", "id", a.ID, "error", err)
	}
}

// List returns the applications matching f, newest first.
func (s *Service) List(ctx context.Context, f query.Filter) ([]db.Applicant, error) {
	applicants := make([]db.Applicant, 0)
	if err := s.db.WithContext(ctx).Scopes(query.Scope(f)).Find(&applicants).Error; err != nil {
		return nil, common.NewError(common.CodeInternal, MsgInternal, fmt.Errorf("list applicants: %w", err))
	}
	if applicants == nil {
		applicants = []db.Applicant{}
	}
	return applicants, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*db.Applicant, error) {
	if id == 0 {
		return nil, common.NewError(common.CodeNotFound, MsgNotFound, nil)
	}
	var a db.Applicant
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewError(common.CodeNotFound, MsgNotFound, err)
		}
		return nil, common.NewError(common.CodeInternal, MsgInternal, fmt.Errorf("get applicant %d: %w", id, err))
	}
	return &a, nil
}

// Stats runs the three counts concurrently. It never fails: each count that
// cannot be read is 0 and listed in Degraded.
func (s *Service) Stats(ctx context.Context) Stats {
	counts := []struct {
		metric   string
		position db.PositionType
		value    int64
		err      error
	}{
		{metric: MetricTotal},
		{metric: MetricInterns, position: db.PositionIntern},
		{metric: MetricVolunteers, position: db.PositionVolunteer},
	}

	var g errgroup.Group
	for i := range counts {
		c := &counts[i]
		g.Go(func() error {
			tx := s.db.WithContext(ctx).Model(&db.Applicant{})
			if c.position != "" {
				tx = tx.Where("position_type = ?", c.position)
			}
			c.err = tx.Count(&c.value).Error
			return nil
		})
	}
	_ = g.Wait()

	var out Stats
	for _, c := range counts {
		if c.err != nil {
			s.log.ErrorContext(ctx, "stats count failed", "metric", c.metric, "error", c.err)
			s.metrics.StatsQueryFailed(c.metric)
			out.Degraded = append(out.Degraded, c.metric)
			continue
		}
		switch c.metric {
		case MetricTotal:
			out.Total = c.value
		case MetricInterns:
			out.Interns = c.value
		case MetricVolunteers:
			out.Volunteers = c.value
		}
	}
	return out
}

// Departments returns the distinct departments in ascending byte order.
func (s *Service) Departments(ctx context.Context) ([]string, error) {
	departments := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&db.Applicant{}).
		Distinct("department").
		Pluck("department", &departments).Error
	if err != nil {
		return nil, common.NewError(common.CodeInternal, MsgInternal, fmt.Errorf("list departments: %w", err))
	}
	if departments == nil {
		departments = []string{}
	}
	slices.Sort(departments)
	return departments, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}
