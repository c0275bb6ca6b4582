package service

import (
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/query"
)

// recorder logs action outcomes and invalidates queries on success
type recorder struct {
	cache *query.Cache
	log   *zap.Logger
}

func newRecorder(cache *query.Cache, log *zap.Logger) recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return recorder{cache: cache, log: log}
}

// rejected logs an action stopped before any request
func (r recorder) rejected(action string, err error, fields ...zap.Field) error {
	r.log.Debug("action rejected", append(fields,
		zap.String("action", action),
		zap.String("code", apperr.CodeOf(err)),
		zap.Stringer("kind", apperr.KindOf(err)))...)
	return err
}

// failed logs a request that did not succeed. A vanished entity still makes
// its cached views stale.
func (r recorder) failed(action string, err error, stale []query.Key, fields ...zap.Field) error {
	if apperr.IsKind(err, apperr.KindNotFound) && len(stale) > 0 {
		r.cache.Invalidate(stale...)
	}
	r.log.Warn("action failed", append(fields,
		zap.String("action", action),
		zap.Stringer("kind", apperr.KindOf(err)),
		zap.Error(err))...)
	return err
}

// succeeded invalidates stale queries and logs the action
func (r recorder) succeeded(action string, stale []query.Key, fields ...zap.Field) {
	if len(stale) > 0 {
		r.cache.Invalidate(stale...)
	}
	r.log.Info("action succeeded", append(fields, zap.String("action", action))...)
}
