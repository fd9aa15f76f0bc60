package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/internal/usecase"
)

// Handler exposes the learning engine over HTTP. Auth lives in front of this
// service; the verified identity arrives in the X-User-* headers.
type Handler struct {
	sync        usecase.SyncUsecase
	collections usecase.CollectionUsecase
	sharing     usecase.SharingUsecase
	lessons     usecase.LessonUsecase
	quiz        usecase.QuizUsecase
	words       repository.WordRepository
	logger      *logrus.Logger
}

// NewHandler wires every usecase into one HTTP surface.
func NewHandler(
	sync usecase.SyncUsecase,
	collections usecase.CollectionUsecase,
	sharing usecase.SharingUsecase,
	lessons usecase.LessonUsecase,
	quiz usecase.QuizUsecase,
	words repository.WordRepository,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		sync:        sync,
		collections: collections,
		sharing:     sharing,
		lessons:     lessons,
		quiz:        quiz,
		words:       words,
		logger:      logger,
	}
}

type currentUser struct {
	ID    string
	Name  string
	Guest bool
}

// user extracts the caller identity. Guests get an empty id so every
// downstream write stays local-only.
func user(c *gin.Context) currentUser {
	u := currentUser{
		ID:    c.GetHeader("X-User-Id"),
		Name:  c.GetHeader("X-User-Name"),
		Guest: c.GetHeader("X-User-Guest") == "true",
	}
	if u.Guest {
		u.ID = ""
	}
	return u
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrCollectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrUnknownSlice),
		errors.Is(err, entity.ErrInvalidSliceValue),
		errors.Is(err, entity.ErrInvalidCollection),
		errors.Is(err, entity.ErrEmptyQuizPool),
		errors.Is(err, entity.ErrQuizPoolTooSmall):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrFavoritesProtected),
		errors.Is(err, entity.ErrOwnSharedCollection),
		errors.Is(err, entity.ErrNotCoedited):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrDuplicateImport):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrShareUnavailable):
		status = http.StatusGone
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// --- sync ---

func (h *Handler) Reconcile(c *gin.Context) {
	state, err := h.sync.Reconcile(c.Request.Context(), user(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type sliceRequest struct {
	Slice entity.Slice    `json:"slice" binding:"required"`
	Value json.RawMessage `json:"value"`
}

func (h *Handler) ApplySlice(c *gin.Context) {
	var req sliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	value, err := decodeSliceValue(req.Slice, req.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	state, err := h.sync.ApplyAndSync(c.Request.Context(), user(c).ID, req.Slice, value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) UpdatePushToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sync.UpdatePushToken(c.Request.Context(), user(c).ID, req.Token); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- words ---

func (h *Handler) ListWords(c *gin.Context) {
	words, err := h.words.Search(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if size < 1 || size > 200 {
		size = 50
	}

	total := len(words)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	c.JSON(http.StatusOK, gin.H{
		"words": words[start:end],
		"total": total,
		"page":  page,
	})
}

// --- lessons ---

type generateLessonRequest struct {
	IncorrectWordIDs []string `json:"incorrect_word_ids"`
}

func (h *Handler) GenerateLesson(c *gin.Context) {
	var req generateLessonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	state, err := h.sync.State(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	plan := h.lessons.GenerateLesson(usecase.LessonProfile{
		MasteredWordIDs: state.MasteredWordIDs,
		IncorrectWords:  h.words.ByIDs(req.IncorrectWordIDs),
	})
	c.JSON(http.StatusOK, plan)
}

type completeLessonRequest struct {
	Plan *entity.LessonPlan `json:"plan" binding:"required"`
}

func (h *Handler) CompleteLesson(c *gin.Context) {
	var req completeLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := h.lessons.CompleteLesson(c.Request.Context(), user(c).ID, req.Plan)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// --- quiz ---

type startQuizRequest struct {
	Mode         entity.QuizMode `json:"mode" binding:"required"`
	Level        int             `json:"level"`
	CollectionID string          `json:"collection_id"`
}

func (h *Handler) StartQuiz(c *gin.Context) {
	var req startQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		pool []entity.Word
		err  error
	)
	switch {
	case req.CollectionID != "":
		pool, err = h.quiz.PoolForCollection(c.Request.Context(), req.CollectionID)
	case req.Mode == entity.QuizModeStarred:
		pool, err = h.quiz.PoolForStarred(c.Request.Context())
	default:
		pool, err = h.quiz.PoolForLevel(req.Level)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	session, err := h.quiz.StartQuiz(req.Mode, pool)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type answerRequest struct {
	Session *entity.QuizSession `json:"session" binding:"required"`
	Answer  string              `json:"answer"`
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quiz.SubmitAnswer(c.Request.Context(), user(c).ID, req.Session, req.Answer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": req.Session})
}

type finishPlacementRequest struct {
	Session *entity.QuizSession `json:"session" binding:"required"`
}

func (h *Handler) FinishPlacement(c *gin.Context) {
	var req finishPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quiz.FinishPlacement(c.Request.Context(), user(c).ID, req.Session)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- collections ---

func (h *Handler) ListCollections(c *gin.Context) {
	state, err := h.sync.State(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": state.Collections})
}

type createCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := user(c)
	collection, err := h.collections.Create(c.Request.Context(), u.ID, req.Name, u.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.collections.Delete(c.Request.Context(), user(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleWord(c *gin.Context) {
	added, err := h.collections.ToggleWord(c.Request.Context(), user(c).ID, c.Param("id"), c.Param("wordId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_collection": added})
}

func (h *Handler) ToggleStar(c *gin.Context) {
	starred, err := h.collections.ToggleStar(c.Request.Context(), user(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": starred})
}

// --- sharing ---

func (h *Handler) CreateExportCode(c *gin.Context) {
	u := user(c)
	info, err := h.sharing.CreateExportCode(c.Request.Context(), u.ID, u.Name, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) InitiateCoedit(c *gin.Context) {
	u := user(c)
	code, err := h.sharing.InitiateCoedit(c.Request.Context(), u.ID, u.Name, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (h *Handler) ResolveSharedBook(c *gin.Context) {
	record, err := h.sharing.FindSharedBook(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "share code not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

type importRequest struct {
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

func (h *Handler) ImportSharedBook(c *gin.Context) {
	var req importRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	collection, err := h.sharing.ImportSharedBook(c.Request.Context(), user(c).ID, c.Param("code"), req.ConfirmDuplicate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if collection == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "share code not found"})
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) RevokeSharedBook(c *gin.Context) {
	if err := h.sharing.DeleteSharedBook(c.Request.Context(), user(c).ID, c.Param("code")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// decodeSliceValue turns the raw JSON of a slice update into the typed value
// the sync entry point expects.
func decodeSliceValue(slice entity.Slice, raw json.RawMessage) (any, error) {
	if !entity.KnownSlice(slice) {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownSlice, slice)
	}
	decode := func(dst any) (any, error) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrInvalidSliceValue, err)
		}
		return dst, nil
	}
	switch slice {
	case entity.SliceStarred, entity.SliceMastered:
		var ids []string
		if _, err := decode(&ids); err != nil {
			return nil, err
		}
		return ids, nil
	case entity.SliceDailyProgress:
		var progress map[string][]string
		if _, err := decode(&progress); err != nil {
			return nil, err
		}
		return progress, nil
	case entity.SliceCollections:
		var collections []entity.Collection
		if _, err := decode(&collections); err != nil {
			return nil, err
		}
		return collections, nil
	case entity.SliceStreak:
		var streak entity.Streak
		if _, err := decode(&streak); err != nil {
			return nil, err
		}
		return streak, nil
	case entity.SlicePlacement:
		var placement entity.PlacementResult
		if _, err := decode(&placement); err != nil {
			return nil, err
		}
		return placement, nil
	case entity.SlicePushToken:
		var token string
		if _, err := decode(&token); err != nil {
			return nil, err
		}
		return token, nil
	}
	return nil, fmt.Errorf("%w: %q", entity.ErrUnknownSlice, slice)
}
