package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/jobs"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/testutil/mocks"
	"github.com/vytor/lingoprogress/internal/worker"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type errorResponse struct {
	Error errorBody `json:"error"`
}

type APISuite struct {
	suite.Suite
	progress  *mocks.MockProgressService
	profiles  *mocks.MockProfileService
	exercises *mocks.MockExerciseService
	sweeps    *mocks.MockSweepQueue
	server    *Server
	handler   http.Handler
	userID    uuid.UUID
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.progress = new(mocks.MockProgressService)
	s.profiles = new(mocks.MockProfileService)
	s.exercises = new(mocks.MockExerciseService)
	s.sweeps = new(mocks.MockSweepQueue)
	s.server = &Server{
		ProgressService: s.progress,
		ProfileService:  s.profiles,
		ExerciseService: s.exercises,
		Sweeps:          s.sweeps,
		DB:              fakePinger{},
	}
	s.handler = s.server.Routes()
	s.userID = uuid.New()
}

func (s *APISuite) TearDownTest() {
	s.progress.AssertExpectations(s.T())
	s.profiles.AssertExpectations(s.T())
	s.exercises.AssertExpectations(s.T())
	s.sweeps.AssertExpectations(s.T())
}

func (s *APISuite) do(method, path string, body any, user bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user {
		req.Header.Set(userIDHeader, s.userID.String())
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decodeError(rec *httptest.ResponseRecorder) errorBody {
	var resp errorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func (s *APISuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil, false)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestReady_DatabaseDown() {
	s.server.DB = fakePinger{err: stderrors.New("gone")}
	s.handler = s.server.Routes()

	rec := s.do(http.MethodGet, "/ready", nil, false)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *APISuite) TestMissingUserHeader() {
	rec := s.do(http.MethodGet, "/api/profile", nil, false)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(apperrors.ErrCodeUnauthorized, s.decodeError(rec).Code)
}

func (s *APISuite) TestInvalidUserHeader() {
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set(userIDHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/nope", nil, false)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apperrors.ErrCodeNotFound, s.decodeError(rec).Code)
}

func (s *APISuite) TestGetProfile() {
	profile := &models.Profile{UserID: s.userID, Hearts: 5, XP: 40, Version: 2}
	s.profiles.On("GetProfile", mock.Anything, s.userID).Return(profile, nil)

	rec := s.do(http.MethodGet, "/api/profile", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var got models.Profile
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(40, got.XP)
	s.Equal(s.userID, got.UserID)
}

func (s *APISuite) TestGetProfile_NotFound() {
	s.profiles.On("GetProfile", mock.Anything, s.userID).
		Return(nil, apperrors.NewNotFoundError("profile", s.userID))

	rec := s.do(http.MethodGet, "/api/profile", nil, true)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apperrors.ErrCodeNotFound, s.decodeError(rec).Code)
}

func (s *APISuite) TestCreateProfile() {
	s.profiles.On("CreateProfile", mock.Anything, s.userID).
		Return(&models.Profile{UserID: s.userID, Hearts: 5, Version: 1}, nil)

	rec := s.do(http.MethodPost, "/api/profile", nil, true)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestHeartsAndStreak() {
	s.profiles.On("GetHearts", mock.Anything, s.userID).
		Return(&models.HeartStatus{Hearts: 3, MaxHearts: 5}, nil)
	s.profiles.On("GetStreak", mock.Anything, s.userID).
		Return(&models.StreakStatus{Streak: 7, PracticedToday: true}, nil)

	rec := s.do(http.MethodGet, "/api/hearts", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	var hearts models.HeartStatus
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &hearts))
	s.Equal(3, hearts.Hearts)

	rec = s.do(http.MethodGet, "/api/streak", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"streak":7`)
}

func (s *APISuite) TestStreakFreezeErrors() {
	s.profiles.On("UseStreakFreeze", mock.Anything, s.userID).
		Return(nil, apperrors.NewNoStreakFreezeError("no streak freeze available"))
	s.profiles.On("BuyStreakFreeze", mock.Anything, s.userID).
		Return(nil, apperrors.NewInsufficientXPError(50, 200))

	rec := s.do(http.MethodPost, "/api/streak/freeze", nil, true)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(apperrors.ErrCodeNoStreakFreeze, s.decodeError(rec).Code)

	rec = s.do(http.MethodPost, "/api/streak/buy-freeze", nil, true)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(apperrors.ErrCodeInsufficientXP, s.decodeError(rec).Code)
}

func (s *APISuite) TestSubmitExercise() {
	exerciseID := uuid.New()
	outcome := &models.ProgressOutcome{ExerciseID: exerciseID, Completed: true, Correct: true, XPEarned: 10, HeartsUsed: 1}
	s.progress.On("SubmitExercise", mock.Anything, s.userID, exerciseID, "hola").Return(outcome, nil)

	rec := s.do(http.MethodPost, "/api/exercises/"+exerciseID.String()+"/submit", answerRequest{Answer: "hola"}, true)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var got models.ProgressOutcome
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.True(got.Correct)
	s.Equal(10, got.XPEarned)
}

func (s *APISuite) TestSubmitExercise_EmptyAnswer() {
	rec := s.do(http.MethodPost, "/api/exercises/"+uuid.NewString()+"/submit", answerRequest{Answer: "  "}, true)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.ErrCodeValidation, s.decodeError(rec).Code)
}

func (s *APISuite) TestSubmitExercise_BadBodies() {
	path := "/api/exercises/" + uuid.NewString() + "/submit"

	rec := s.do(http.MethodPost, path, `{"answer":`, true)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.ErrCodeBadRequest, s.decodeError(rec).Code)

	rec = s.do(http.MethodPost, path, `{"answer":"x","extra":1}`, true)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/exercises/abc/submit", answerRequest{Answer: "x"}, true)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.ErrCodeValidation, s.decodeError(rec).Code)
}

func (s *APISuite) TestSubmitExercise_DomainErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"already completed", apperrors.NewAlreadyCompletedError("x"), http.StatusConflict, apperrors.ErrCodeAlreadyCompleted},
		{"no hearts", apperrors.NewInsufficientHeartsError(0, 1), http.StatusConflict, apperrors.ErrCodeInsufficientHearts},
		{"conflict", apperrors.NewConcurrentModificationError("profile", nil), http.StatusServiceUnavailable, apperrors.ErrCodeConcurrentModification},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			exerciseID := uuid.New()
			s.progress.On("SubmitExercise", mock.Anything, s.userID, exerciseID, "x").Return(nil, tt.err).Once()

			rec := s.do(http.MethodPost, "/api/exercises/"+exerciseID.String()+"/submit", answerRequest{Answer: "x"}, true)
			s.Equal(tt.status, rec.Code)
			s.Equal(tt.code, s.decodeError(rec).Code)
			if tt.code == apperrors.ErrCodeConcurrentModification {
				s.Equal("1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func (s *APISuite) TestCheckAnswer() {
	exerciseID := uuid.New()
	s.progress.On("CheckAnswer", mock.Anything, exerciseID, "b").Return(false, nil)

	rec := s.do(http.MethodPost, "/api/exercises/"+exerciseID.String()+"/check", answerRequest{Answer: "b"}, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"correct":false}`, rec.Body.String())
}

func (s *APISuite) TestProgress() {
	lessonID := uuid.New()
	s.progress.On("GetUserProgress", mock.Anything, s.userID).Return([]models.ProgressRecord{}, nil)
	s.progress.On("GetLessonProgress", mock.Anything, s.userID, lessonID).
		Return(&models.LessonProgress{LessonID: lessonID, Completed: 2, Total: 3, PercentComplete: 66}, nil)

	rec := s.do(http.MethodGet, "/api/progress", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/lessons/"+lessonID.String()+"/progress", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"percent_complete":66`)
}

func (s *APISuite) TestTriggerSweep() {
	s.sweeps.On("EnqueueHeartSweep").Return(nil).Once()
	s.sweeps.On("EnqueueHeartSweep").Return(jobs.ErrSweepInFlight).Once()
	s.sweeps.On("EnqueueStreakSweep").Return(worker.ErrQueueFull).Once()

	rec := s.do(http.MethodPost, "/api/admin/sweeps/hearts", nil, false)
	s.Equal(http.StatusAccepted, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/sweeps/hearts", nil, false)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal(apperrors.ErrCodeConcurrentModification, s.decodeError(rec).Code)

	rec = s.do(http.MethodPost, "/api/admin/sweeps/streaks", nil, false)
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/sweeps/everything", nil, false)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestSaveExercise() {
	lessonID := uuid.New()
	saved := models.Exercise{
		ID:         uuid.New(),
		LessonID:   lessonID,
		Prompt:     "Pick one",
		XPReward:   5,
		HeartsCost: 1,
		Payload:    models.MultipleChoice{Options: []string{"a", "b"}, CorrectIndex: 1},
	}
	s.exercises.On("SaveExercise", mock.Anything, mock.MatchedBy(func(ex models.Exercise) bool {
		mc, ok := ex.Payload.(models.MultipleChoice)
		return ok && mc.CorrectIndex == 1 && ex.LessonID == lessonID
	})).Return(&saved, nil)

	body := map[string]any{
		"lesson_id":   lessonID,
		"prompt":      "Pick one",
		"xp_reward":   5,
		"hearts_cost": 1,
		"kind":        "multiple_choice",
		"payload":     map[string]any{"options": []string{"a", "b"}, "correct_index": 1},
	}
	rec := s.do(http.MethodPut, "/api/admin/exercises", body, false)
	s.Require().Equal(http.StatusOK, rec.Code)

	var doc exerciseDocument
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &doc))
	s.Equal(saved.ID, doc.ID)
	s.Equal(models.KindMultipleChoice, doc.Kind)
	s.JSONEq(`{"options":["a","b"],"correct_index":1}`, string(doc.Payload))
}

func (s *APISuite) TestSaveExercise_UnknownKind() {
	body := map[string]any{
		"lesson_id": uuid.New(),
		"prompt":    "?",
		"kind":      "essay",
		"payload":   map[string]any{},
	}
	rec := s.do(http.MethodPut, "/api/admin/exercises", body, false)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apperrors.ErrCodeValidation, s.decodeError(rec).Code)
}

func (s *APISuite) TestLessonExercises() {
	lessonID := uuid.New()
	list := []models.Exercise{
		{ID: uuid.New(), LessonID: lessonID, Prompt: "a", Payload: models.Translation{Expected: "uno"}},
		{ID: uuid.New(), LessonID: lessonID, Prompt: "b", Payload: models.Matching{Pairs: map[string]string{"dog": "perro"}}},
	}
	s.exercises.On("ListLessonExercises", mock.Anything, lessonID).Return(list, nil)

	rec := s.do(http.MethodGet, "/api/admin/lessons/"+lessonID.String()+"/exercises", nil, false)
	s.Require().Equal(http.StatusOK, rec.Code)

	var docs []exerciseDocument
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &docs))
	s.Require().Len(docs, 2)
	s.Equal(models.KindTranslation, docs[0].Kind)
	s.Equal(models.KindMatching, docs[1].Kind)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrCodeInternal)
}

func TestTimeoutMiddleware(t *testing.T) {
	h := timeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"TIMEOUT","message":"request timeout"}}`, rec.Body.String())
}

func TestTimeoutMiddleware_PassesThroughHandlerHeaders(t *testing.T) {
	h := timeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}
