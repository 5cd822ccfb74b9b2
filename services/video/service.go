package video

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nijaru/vindex/errors"
	"github.com/nijaru/vindex/indexer"
	"github.com/nijaru/vindex/models"
	"github.com/nijaru/vindex/validation"
)

// defaultNameLayout matches the timestamp names given to uploads.
const defaultNameLayout = "2006-01-02 15:04:05.000000"

type service struct {
	client    Indexer
	validator *validation.Validator
	config    Config
	logger    *logrus.Logger
	now       func() time.Time
}

func NewService(client Indexer, validator *validation.Validator, config Config, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		client:    client,
		validator: validator,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error) {
	const op = "VideoService.Submit"

	req.URL = strings.TrimSpace(req.URL)
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validator.ValidateVideoURL(req.URL); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateName(req.Name); err != nil {
		return nil, err
	}

	submittedAt := s.now()
	video := indexer.VideoReference{
		URL:  req.URL,
		Name: req.Name,
		ID:   uuid.New().String(),
	}
	if video.Name == "" {
		video.Name = submittedAt.Format(defaultNameLayout)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"video_id":  video.ID,
		"name":      video.Name,
	})
	logger.Info("Submitting video for indexing")

	token, err := s.client.AccessToken(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to acquire access token")
		return nil, errors.FromIndexer(op, err)
	}

	res, err := s.client.Submit(ctx, video, token)
	if err != nil {
		logger.WithError(err).Error("Video submission failed")
		return nil, errors.FromIndexer(op, err)
	}

	logger.WithField("job_id", res.JobID).Info("Video accepted for indexing")

	return &models.Submission{
		ID:          video.ID,
		JobID:       res.JobID,
		Name:        video.Name,
		URL:         video.URL,
		AccessToken: string(res.Token),
		SubmittedAt: submittedAt.UTC(),
	}, nil
}

func (s *service) Token(ctx context.Context) (indexer.AccessToken, error) {
	const op = "VideoService.Token"

	token, err := s.client.AccessToken(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("operation", op).Error("Failed to acquire access token")
		return "", errors.FromIndexer(op, err)
	}
	return token, nil
}

func (s *service) Progress(ctx context.Context, jobID string, token indexer.AccessToken) (*indexer.Progress, error) {
	const op = "VideoService.Progress"

	if err := s.validator.ValidateJobID(jobID); err != nil {
		return nil, err
	}

	if token == "" {
		var err error
		if token, err = s.client.AccessToken(ctx); err != nil {
			return nil, errors.FromIndexer(op, err)
		}
	}

	p, err := s.client.Progress(ctx, jobID, token)
	if err != nil {
		return nil, errors.FromIndexer(op, err)
	}
	return p, nil
}

// Wait reads progress every PollInterval until the job reaches a terminal
// state. A 401 on a read replaces the token once; a second consecutive 401
// ends the wait.
func (s *service) Wait(ctx context.Context, jobID string, token indexer.AccessToken, onUpdate func(*indexer.Progress)) (*indexer.Progress, error) {
	const op = "VideoService.Wait"

	if err := s.validator.ValidateJobID(jobID); err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"job_id":    jobID,
	})

	interval := s.config.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	refreshed := false
	for {
		if !refreshed {
			if err := limiter.Wait(ctx); err != nil {
				return nil, errors.FromIndexer(op, &indexer.CancelledError{Op: op, Err: pkgerrors.Wrap(err, "wait for next poll")})
			}
		}

		if token == "" {
			t, err := s.client.AccessToken(ctx)
			if err != nil {
				return nil, errors.FromIndexer(op, err)
			}
			token = t
		}

		p, err := s.client.Progress(ctx, jobID, token)
		if err != nil {
			var pollErr *indexer.PollError
			if pkgerrors.As(err, &pollErr) && pollErr.Status == http.StatusUnauthorized && !refreshed {
				// Re-read with a fresh token without waiting for the next tick.
				logger.Info("Access token expired while polling, acquiring a new one")
				token = ""
				refreshed = true
				continue
			}
			logger.WithError(err).Warn("Progress read failed")
			return nil, errors.FromIndexer(op, err)
		}
		refreshed = false

		logger.WithFields(logrus.Fields{
			"progress": p.Progress,
			"state":    p.State,
		}).Debug("Progress read")

		if onUpdate != nil {
			onUpdate(p)
		}
		if p.Done() {
			return p, nil
		}
	}
}
