package entity

// LessonPlan is the ephemeral daily lesson computed by the scheduler. It is
// recomputed each session and never persisted as-is; completing it feeds the
// daily progress log and mastered set instead.
type LessonPlan struct {
	Date        string `json:"date"`
	NewWords    []Word `json:"new_words"`
	ReviewWords []Word `json:"review_words"`
	Total       int    `json:"total"`
}

// LessonPhase names a step of the guided lesson flow.
type LessonPhase string

const (
	PhaseIntro       LessonPhase = "intro"
	PhaseLearnNew    LessonPhase = "learn_new"
	PhaseQuizNew     LessonPhase = "quiz_new"
	PhaseLearnReview LessonPhase = "learn_review"
	PhaseQuizReview  LessonPhase = "quiz_review"
	PhaseSummary     LessonPhase = "summary"
)

// LessonSession steps a caller through a LessonPlan phase by phase. Review
// words get no learn step; the learn_review phase falls straight through to
// quiz_review, matching the flow users already know.
type LessonSession struct {
	Plan  *LessonPlan `json:"plan"`
	Phase LessonPhase `json:"phase"`
	Index int         `json:"index"`
}

// NewLessonSession starts a session at the intro phase.
func NewLessonSession(plan *LessonPlan) *LessonSession {
	return &LessonSession{Plan: plan, Phase: PhaseIntro}
}

func (s *LessonSession) pool() []Word {
	switch s.Phase {
	case PhaseLearnNew, PhaseQuizNew:
		return s.Plan.NewWords
	case PhaseLearnReview, PhaseQuizReview:
		return s.Plan.ReviewWords
	default:
		return nil
	}
}

// Current returns the word under study, or false outside word-stepping
// phases or past the end of the current pool.
func (s *LessonSession) Current() (Word, bool) {
	pool := s.pool()
	if s.Index < 0 || s.Index >= len(pool) {
		return Word{}, false
	}
	return pool[s.Index], true
}

// Advance moves to the next word, rolling into the next phase when the
// current pool is exhausted.
func (s *LessonSession) Advance() {
	s.Index++
	s.normalize()
}

// Begin leaves the intro phase.
func (s *LessonSession) Begin() {
	if s.Phase == PhaseIntro {
		s.Phase = PhaseLearnNew
		s.Index = 0
		s.normalize()
	}
}

// Done reports whether the session reached the summary phase.
func (s *LessonSession) Done() bool {
	return s.Phase == PhaseSummary
}

func (s *LessonSession) normalize() {
	for {
		switch s.Phase {
		case PhaseIntro, PhaseSummary:
			return
		case PhaseLearnReview:
			// Reviews are quizzed directly, never re-taught.
			s.Phase = PhaseQuizReview
			s.Index = 0
		default:
			if s.Index < len(s.pool()) {
				return
			}
			s.Phase = s.nextPhase()
			s.Index = 0
		}
	}
}

func (s *LessonSession) nextPhase() LessonPhase {
	switch s.Phase {
	case PhaseLearnNew:
		return PhaseQuizNew
	case PhaseQuizNew:
		return PhaseLearnReview
	case PhaseQuizReview:
		return PhaseSummary
	default:
		return s.Phase
	}
}
