package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
)

type Stage string

const (
	StageForm       Stage = "form"
	StageGenerating Stage = "generating"
	StageOutput     Stage = "output"
)

type StepAction string

const (
	ActionNext StepAction = "next"
	ActionBack StepAction = "back"
)

var (
	ErrGenerationInFlight = errors.New("a manifestation is already being generated")
	ErrNothingToSave      = errors.New("there is no manifestation to save")
)

// CreateSession is one visitor's progress through the create page.
type CreateSession struct {
	Wizard        manifestation.Wizard
	Stage         Stage
	FormData      *manifestation.FormData
	Manifestation string
	AudioPath     *string
	Saved         bool
	SavedID       int64
	// LastError is the message of the most recent failed generation, cleared on success.
	LastError string

	lastSeen time.Time
}

type CreateService struct {
	generator Generator
	history   *HistoryService
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*CreateSession
}

func NewCreateService(generator Generator, history *HistoryService, ttl time.Duration, logger *zap.Logger) *CreateService {
	return &CreateService{
		generator: generator,
		history:   history,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*CreateSession),
	}
}

// session must be called with s.mu held.
func (s *CreateService) session(visitorID string) *CreateSession {
	sess, ok := s.sessions[visitorID]
	if !ok {
		sess = &CreateSession{Wizard: manifestation.NewWizard(), Stage: StageForm}
		s.sessions[visitorID] = sess
		createSessions.Set(float64(len(s.sessions)))
	}
	sess.lastSeen = s.now()
	return sess
}

// Session returns a snapshot of the visitor's create state.
func (s *CreateService) Session(visitorID string) CreateSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.session(visitorID)
}

// Step applies the submitted values of the current step and then moves back or forward.
// Moving forward from the last step submits the form for generation.
func (s *CreateService) Step(ctx context.Context, visitorID string, values map[string]string, action StepAction) (CreateSession, error) {
	s.mu.Lock()
	sess := s.session(visitorID)
	if sess.Stage != StageForm {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}

	for key, value := range values {
		sess.Wizard.Set(key, value)
	}

	if action == ActionBack {
		sess.Wizard.Back()
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}

	done, err := sess.Wizard.Next()
	if err != nil || !done {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, err
	}
	data := sess.Wizard.Data
	s.mu.Unlock()

	return s.Submit(ctx, visitorID, data)
}

// Submit generates a manifestation for data. On failure the session returns to the
// form stage and nothing is persisted.
func (s *CreateService) Submit(ctx context.Context, visitorID string, data manifestation.FormData) (CreateSession, error) {
	s.mu.Lock()
	sess := s.session(visitorID)
	if sess.Stage == StageGenerating {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, ErrGenerationInFlight
	}
	sess.FormData = &data
	sess.Stage = StageGenerating
	s.mu.Unlock()

	result, err := s.generator.GenerateManifestation(ctx, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess = s.session(visitorID)

	if err != nil {
		s.logger.Error("error generating manifestation", zap.String("visitor", visitorID), zap.Error(err))
		sess.Stage = StageForm
		sess.LastError = err.Error()
		return *sess, err
	}

	sess.Stage = StageOutput
	sess.Manifestation = result.ManifestationText
	sess.AudioPath = result.AudioPath
	sess.Saved = false
	sess.SavedID = 0
	sess.LastError = ""
	return *sess, nil
}

// Regenerate asks for a new manifestation from the last submitted form. Without a
// submitted form it does nothing. A failure keeps the previous output.
func (s *CreateService) Regenerate(ctx context.Context, visitorID string) (CreateSession, error) {
	s.mu.Lock()
	sess := s.session(visitorID)
	if sess.FormData == nil {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}
	if sess.Stage == StageGenerating {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, ErrGenerationInFlight
	}
	previous := sess.Stage
	data := *sess.FormData
	sess.Stage = StageGenerating
	s.mu.Unlock()

	result, err := s.generator.GenerateManifestation(ctx, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess = s.session(visitorID)

	if err != nil {
		s.logger.Error("error regenerating manifestation", zap.String("visitor", visitorID), zap.Error(err))
		sess.Stage = previous
		sess.LastError = err.Error()
		return *sess, err
	}

	sess.Stage = StageOutput
	sess.Manifestation = result.ManifestationText
	sess.AudioPath = result.AudioPath
	sess.Saved = false
	sess.SavedID = 0
	sess.LastError = ""
	return *sess, nil
}

// Save appends the current output to the visitor's history once.
func (s *CreateService) Save(ctx context.Context, visitorID string) (CreateSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(visitorID)
	if sess.Stage != StageOutput || sess.Manifestation == "" {
		return *sess, ErrNothingToSave
	}
	if sess.Saved {
		return *sess, nil
	}

	var form *manifestation.FormData
	if sess.FormData != nil {
		copied := *sess.FormData
		form = &copied
	}

	record, err := s.history.Append(ctx, visitorID, manifestation.SaveManifestationRequest{
		Content:   sess.Manifestation,
		AudioPath: sess.AudioPath,
		FormData:  form,
	})
	if err != nil {
		return *sess, err
	}

	sess.Saved = true
	sess.SavedID = record.ID
	return *sess, nil
}

// Reset starts a fresh form. A generation in flight keeps its session.
func (s *CreateService) Reset(visitorID string) CreateSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(visitorID)
	if sess.Stage == StageGenerating {
		return *sess
	}
	*sess = CreateSession{Wizard: manifestation.NewWizard(), Stage: StageForm, lastSeen: s.now()}
	return *sess
}

// EvictIdle drops sessions not touched within the TTL and returns how many were removed.
func (s *CreateService) EvictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Stage != StageGenerating && s.now().Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	createSessions.Set(float64(len(s.sessions)))
	return removed
}

// CleanupSessions evicts idle sessions every interval until ctx is done.
func (s *CreateService) CleanupSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.Debug("evicted idle create sessions", zap.Int("count", n))
			}
		}
	}
}
