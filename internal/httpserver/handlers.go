package httpserver

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
	"github.com/Adarshprakash123/aui-interview/internal/resume"
)

// maxResumeUpload caps resume file uploads.
const maxResumeUpload = 10 << 20

// InterviewService is the turn orchestrator as seen by the HTTP layer.
type InterviewService interface {
	Start(ctx context.Context, sessionID string) (*interview.StartResult, error)
	ProcessTurn(ctx context.Context, sessionID string, audio []byte, format string) (*interview.TurnResult, error)
	GetSession(ctx context.Context, sessionID string) (*interview.Session, error)
}

// ResumeService accepts resumes and seeds sessions.
type ResumeService interface {
	AcceptFile(ctx context.Context, data []byte, contentType string) (string, interview.ResumeProfile, error)
	AcceptText(ctx context.Context, text string) (string, interview.ResumeProfile, error)
}

// TokenIssuer mints video-room access tokens.
type TokenIssuer interface {
	Generate(roomName, participantName, sessionID string) (string, error)
}

// Handlers bundles route handlers and their dependencies.
type Handlers struct {
	Interview  InterviewService
	Resume     ResumeService
	Tokens     TokenIssuer
	Events     *interview.Events
	LiveKitURL string
}

func NewHandlers(iv InterviewService, rs ResumeService, tokens TokenIssuer, events *interview.Events, liveKitURL string) *Handlers {
	return &Handlers{Interview: iv, Resume: rs, Tokens: tokens, Events: events, LiveKitURL: liveKitURL}
}

func (h *Handlers) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/resume/upload", h.resumeUpload)
	api.POST("/resume/manual", h.resumeManual)
	api.POST("/interview/start", h.interviewStart)
	api.POST("/interview/audio", h.interviewAudio)
	api.GET("/interview/session/:sessionId", h.interviewSession)
	api.GET("/interview/events/:sessionId", h.interviewEvents)
	api.POST("/token/generate", h.tokenGenerate)
}

type errorResponse struct {
	Error string `json:"error"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// failFrom maps domain errors onto HTTP statuses.
func failFrom(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return fail(c, http.StatusNotFound, "Session not found")
	case errors.Is(err, interview.ErrInterviewNotStarted):
		return fail(c, http.StatusConflict, "Interview has not been started")
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return fail(c, http.StatusInternalServerError, fallback)
	}
}

type resumeManualRequest struct {
	ResumeText string `json:"resumeText"`
}

type resumeResponse struct {
	Success   bool                    `json:"success"`
	SessionID string                  `json:"sessionId"`
	Profile   interview.ResumeProfile `json:"resumeData"`
}

func (h *Handlers) resumeUpload(c echo.Context) error {
	fh, err := c.FormFile("resume")
	if err != nil {
		return fail(c, http.StatusBadRequest, "No file uploaded")
	}
	if fh.Size > maxResumeUpload {
		return fail(c, http.StatusRequestEntityTooLarge, "Resume file exceeds the 10MB limit")
	}

	f, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxResumeUpload+1))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read uploaded file")
	}
	if len(data) > maxResumeUpload {
		return fail(c, http.StatusRequestEntityTooLarge, "Resume file exceeds the 10MB limit")
	}

	sessionID, profile, err := h.Resume.AcceptFile(c.Request().Context(), data, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedType) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return failFrom(c, err, "Failed to process resume")
	}
	return c.JSON(http.StatusOK, resumeResponse{Success: true, SessionID: sessionID, Profile: profile})
}

func (h *Handlers) resumeManual(c echo.Context) error {
	var req resumeManualRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return fail(c, http.StatusBadRequest, "Resume text is required")
	}

	sessionID, profile, err := h.Resume.AcceptText(c.Request().Context(), req.ResumeText)
	if err != nil {
		return failFrom(c, err, "Failed to process resume")
	}
	return c.JSON(http.StatusOK, resumeResponse{Success: true, SessionID: sessionID, Profile: profile})
}

type startRequest struct {
	SessionID string `json:"sessionId"`
}

type startResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"sessionId"`
	Question    string `json:"question"`
	AudioBase64 string `json:"audioBase64"`
}

func (h *Handlers) interviewStart(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.SessionID == "" {
		return fail(c, http.StatusBadRequest, "Session ID is required")
	}

	res, err := h.Interview.Start(c.Request().Context(), req.SessionID)
	if err != nil {
		return failFrom(c, err, "Failed to start interview")
	}
	return c.JSON(http.StatusOK, startResponse{
		Success:     true,
		SessionID:   req.SessionID,
		Question:    res.Question,
		AudioBase64: base64.StdEncoding.EncodeToString(res.Audio),
	})
}

type audioRequest struct {
	SessionID   string `json:"sessionId"`
	AudioBase64 string `json:"audioBase64"`
	AudioFormat string `json:"audioFormat"`
}

type audioResponse struct {
	Success         bool   `json:"success"`
	TranscribedText string `json:"transcribedText"`
	Response        string `json:"response"`
	AudioBase64     string `json:"audioBase64"`
	ShouldContinue  bool   `json:"shouldContinue"`
}

func (h *Handlers) interviewAudio(c echo.Context) error {
	var req audioRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.SessionID == "" || req.AudioBase64 == "" {
		return fail(c, http.StatusBadRequest, "Session ID and audio data are required")
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid audio encoding")
	}
	format := req.AudioFormat
	if format == "" {
		format = "webm"
	}

	res, err := h.Interview.ProcessTurn(c.Request().Context(), req.SessionID, audio, format)
	if err != nil {
		return failFrom(c, err, "Failed to process audio")
	}
	return c.JSON(http.StatusOK, audioResponse{
		Success:         true,
		TranscribedText: res.Transcript,
		Response:        res.Response,
		AudioBase64:     base64.StdEncoding.EncodeToString(res.Audio),
		ShouldContinue:  res.ShouldContinue,
	})
}

type sessionResponse struct {
	Success bool               `json:"success"`
	Session *interview.Session `json:"session"`
}

func (h *Handlers) interviewSession(c echo.Context) error {
	sess, err := h.Interview.GetSession(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return failFrom(c, err, "Failed to get session")
	}
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: sess})
}

type tokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
	SessionID       string `json:"sessionId"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}

func (h *Handlers) tokenGenerate(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.RoomName == "" || req.ParticipantName == "" {
		return fail(c, http.StatusBadRequest, "Room name and participant name are required")
	}

	tok, err := h.Tokens.Generate(req.RoomName, req.ParticipantName, req.SessionID)
	if err != nil {
		return failFrom(c, err, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Success: true, Token: tok, URL: h.LiveKitURL})
}
