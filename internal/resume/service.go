package resume

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
	"github.com/Adarshprakash123/aui-interview/internal/storage"
)

// Analyzer extracts a structured candidate profile from raw resume text.
type Analyzer interface {
	AnalyzeResume(ctx context.Context, resumeText string) (interview.ResumeProfile, error)
}

// Service accepts a resume (file or plain text), analyzes it, and creates
// the interview session it seeds.
type Service struct {
	analyzer Analyzer
	store    interview.Store
	uploader storage.Uploader
}

func NewService(analyzer Analyzer, store interview.Store, uploader storage.Uploader) *Service {
	if uploader == nil {
		uploader = storage.NopUploader{}
	}
	return &Service{analyzer: analyzer, store: store, uploader: uploader}
}

// AcceptFile extracts text from an uploaded PDF/DOCX, then runs AcceptText.
// The original file bytes are archived to object storage in the background;
// archival failure never blocks session creation.
func (s *Service) AcceptFile(ctx context.Context, data []byte, contentType string) (string, interview.ResumeProfile, error) {
	text, err := ExtractText(data, contentType)
	if err != nil {
		return "", interview.ResumeProfile{}, err
	}

	sessionID, profile, err := s.AcceptText(ctx, text)
	if err != nil {
		return "", interview.ResumeProfile{}, err
	}

	objectKey := fmt.Sprintf("resumes/%s_%d", sessionID, time.Now().Unix())
	go func() {
		if err := s.uploader.Upload(objectKey, contentType, data); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("resume archive upload failed")
		}
	}()

	return sessionID, profile, nil
}

// AcceptText analyzes resume text and creates the session record.
func (s *Service) AcceptText(ctx context.Context, text string) (string, interview.ResumeProfile, error) {
	profile, err := s.analyzer.AnalyzeResume(ctx, text)
	if err != nil {
		return "", interview.ResumeProfile{}, err
	}
	sessionID, err := s.store.Create(ctx, profile, text)
	if err != nil {
		return "", interview.ResumeProfile{}, err
	}
	log.Info().Str("session_id", sessionID).Str("seniority", profile.SeniorityLevel).Msg("resume accepted")
	return sessionID, profile, nil
}
