// Package enrol sequences a photo enrolment run: token, upload and the
// optional cleanup of the enrolled user. It never exits the process; the
// first failing step's error is returned to the caller.
package enrol

import (
	"context"
	"io"
	"log/slog"
	"os"

	"photoenrol/internal/iproov"
	"photoenrol/internal/platform/metrics"
	"photoenrol/internal/platform/tracer"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

// API is the remote side of an enrolment.
type API interface {
	CreateEnrolToken(ctx context.Context, username domain.Username) (string, error)
	EnrolImage(ctx context.Context, in iproov.EnrolImageRequest) error
	AccessToken(ctx context.Context) (string, error)
	DeleteUser(ctx context.Context, accessToken string, username domain.Username) error
}

// ImageReader loads the photo to upload.
type ImageReader func(path string) ([]byte, error)

// Config holds the settings the orchestrator itself needs.
type Config struct {
	ImagePath   string
	ImageSource string
}

// RunOptions selects optional steps.
type RunOptions struct {
	DeleteUser bool
}

// Result describes what a run did. It is returned alongside an error too,
// so the caller can report which user a failed run created.
type Result struct {
	Username   domain.Username
	Enrolled   bool
	Deleted    bool
	ImageBytes int
}

// Service runs enrolments.
type Service struct {
	api       API
	cfg       Config
	usernames domain.UsernameGenerator
	readImage ImageReader
	logger    *slog.Logger
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithUsernameGenerator replaces the default three-word petname generator.
func WithUsernameGenerator(gen domain.UsernameGenerator) Option {
	return func(s *Service) { s.usernames = gen }
}

// WithImageReader replaces os.ReadFile.
func WithImageReader(r ImageReader) Option {
	return func(s *Service) { s.readImage = r }
}

// New creates a Service.
func New(api API, cfg Config, opts ...Option) (*Service, error) {
	if api == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "enrol api client is required")
	}
	s := &Service{
		api:       api,
		cfg:       cfg,
		usernames: domain.PetnameGenerator(domain.DefaultUsernameWords, domain.DefaultUsernameSeparator),
		readImage: os.ReadFile,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run performs one enrolment. Steps run strictly in order and the first
// error stops the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) (result *Result, err error) {
	result = &Result{Username: s.usernames()}

	ctx, span := s.tracer.Start(ctx, tracer.SpanRun,
		tracer.String(tracer.AttrUsername, result.Username.String()),
		tracer.Bool(tracer.AttrDeleteUser, opts.DeleteUser),
	)
	defer func() {
		span.End(err)
		if s.metrics != nil {
			s.metrics.SetRunResult(err)
		}
	}()

	s.logger.InfoContext(ctx, "starting photo enrolment",
		"username", result.Username.String(),
		"delete_user", opts.DeleteUser,
	)

	token, err := s.api.CreateEnrolToken(ctx, result.Username)
	if err != nil {
		return result, err
	}

	image, err := s.readImage(s.cfg.ImagePath)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeImageRead, "cannot read image "+s.cfg.ImagePath+": "+err.Error())
	}
	result.ImageBytes = len(image)
	if s.metrics != nil {
		s.metrics.SetImageBytes(len(image))
	}

	if err = s.api.EnrolImage(ctx, iproov.EnrolImageRequest{
		Token:  token,
		Image:  image,
		Source: s.cfg.ImageSource,
	}); err != nil {
		return result, err
	}
	result.Enrolled = true
	s.logger.InfoContext(ctx, "user '"+result.Username.String()+"' enrolled",
		"username", result.Username.String(),
	)

	if !opts.DeleteUser {
		return result, nil
	}

	accessToken, err := s.api.AccessToken(ctx)
	if err != nil {
		return result, err
	}
	if err = s.api.DeleteUser(ctx, accessToken, result.Username); err != nil {
		return result, err
	}
	result.Deleted = true
	return result, nil
}
