// Package proxy fetches variables from the remote design-file API and
// republishes them as views.
package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/varbridge/backend/internal/figma"
	"github.com/varbridge/backend/internal/models"
	"golang.org/x/sync/singleflight"
)

// Upstream is the subset of the API client the service needs.
type Upstream interface {
	HasToken() bool
	GetFileVariables(ctx context.Context, fileKey string) (*figma.VariablesResponse, error)
	GetVariable(ctx context.Context, variableID string) (json.RawMessage, error)
}

// Recorder receives every successfully transformed file.
type Recorder interface {
	Record(ctx context.Context, fileKey string, views []models.VariableView) error
}

// Service reshapes upstream responses. Concurrent requests for the same file
// share one upstream call; nothing is cached between calls.
type Service struct {
	upstream Upstream
	recorder Recorder
	logger   *slog.Logger
	group    singleflight.Group

	fetchTimeout time.Duration
}

// NewService creates a proxy service. recorder may be nil.
func NewService(upstream Upstream, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		upstream: upstream,
		recorder: recorder,
		logger:   logger,

		fetchTimeout: figma.DefaultTimeout,
	}
}

// Configured reports whether the upstream has an access token.
func (s *Service) Configured() bool {
	return s.upstream.HasToken()
}

// FileVariables returns the views for every variable in a file.
//
// The shared upstream call is detached from the callers' contexts and bounded
// by fetchTimeout. Each caller returns as soon as its own ctx is done.
func (s *Service) FileVariables(ctx context.Context, fileKey string) ([]models.VariableView, error) {
	if !s.upstream.HasToken() {
		return nil, figma.ErrTokenNotConfigured
	}

	ch := s.group.DoChan(fileKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		resp, err := s.upstream.GetFileVariables(fetchCtx, fileKey)
		if err != nil {
			return nil, err
		}

		views := figma.TransformVariables(resp)
		s.logger.Info("fetched file variables", "file", fileKey, "count", len(views))

		if s.recorder != nil {
			if err := s.recorder.Record(fetchCtx, fileKey, views); err != nil {
				s.logger.Warn("recording snapshot failed", "file", fileKey, "error", err)
			}
		}
		return views, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.Error("fetching file variables failed", "file", fileKey, "error", res.Err)
		return nil, res.Err
	}

	views := res.Val.([]models.VariableView)
	if res.Shared {
		views = slices.Clone(views)
	}
	return views, nil
}

// Variable returns a single variable's upstream JSON.
func (s *Service) Variable(ctx context.Context, variableID string) (json.RawMessage, error) {
	raw, err := s.upstream.GetVariable(ctx, variableID)
	if err != nil {
		s.logger.Error("fetching variable failed", "variable", variableID, "error", err)
		return nil, err
	}
	return raw, nil
}
