package entity

// QuizMode selects the quiz flavour.
type QuizMode string

const (
	// QuizModeStandard is the regular 10-question quiz with in-session
	// retry of missed words.
	QuizModeStandard QuizMode = "standard"
	// QuizModePlacement is the fixed 5-question assessment; no retries.
	QuizModePlacement QuizMode = "placement"
	// QuizModeStarred quizzes the starred pool and offers to unstar
	// words answered correctly.
	QuizModeStarred QuizMode = "starred"
)

// DontKnowAnswer is the implicit fifth option, always scored as incorrect.
const DontKnowAnswer = "DONT_KNOW"

// OptionsPerQuestion includes the correct definition plus three distractors.
const OptionsPerQuestion = 4

// Question pairs a target word with shuffled definition options. Duplicate
// distractor definitions are possible and tolerated.
type Question struct {
	Target  Word     `json:"target"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// QuizSession is one quiz attempt. Missed questions are re-queued a few
// positions ahead so they resurface before the session ends.
type QuizSession struct {
	Mode           QuizMode   `json:"mode"`
	Questions      []Question `json:"questions"`
	Index          int        `json:"index"`
	Score          int        `json:"score"`
	IncorrectWords []Word     `json:"incorrect_words"`
}

// Current returns the question at the cursor, or false when finished.
func (s *QuizSession) Current() (Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Finished reports whether the queue is exhausted.
func (s *QuizSession) Finished() bool {
	return s.Index >= len(s.Questions)
}

// RecordIncorrect tracks a missed word, deduplicated by id.
func (s *QuizSession) RecordIncorrect(w Word) {
	for _, seen := range s.IncorrectWords {
		if seen.ID == w.ID {
			return
		}
	}
	s.IncorrectWords = append(s.IncorrectWords, w)
}

// AnswerResult describes the outcome of one submitted answer, including the
// proposed state updates the caller persists through the sync entry point.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`

	// MasteredWordID is set when the answer promotes the target word to
	// the mastered set (correct, non-placement).
	MasteredWordID string `json:"mastered_word_id,omitempty"`

	// PromptUnstar is set in starred mode when the user should be asked
	// whether to remove the now-answered word from favorites.
	PromptUnstar bool `json:"prompt_unstar,omitempty"`

	// Requeued is set when the missed question was reinserted into the
	// queue for an in-session retry.
	Requeued bool `json:"requeued,omitempty"`
}
