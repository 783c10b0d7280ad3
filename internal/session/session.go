package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"rosatomquiz/internal/quiz"
)

// Conversation states, entered in order. Answering loops until every
// question of the resolved list has been answered.
const (
	StateChoosingLanguage   = "choosing_language"
	StateEnteringName       = "entering_name"
	StateEnteringEmail      = "entering_email"
	StateConfirmingConsent  = "confirming_consent"
	StateChoosingCategory   = "choosing_category"
	StateChoosingDifficulty = "choosing_difficulty"
	StateAnswering          = "answering"
	StateFinished           = "finished"
)

// Events accepted by the session machine.
const (
	EventChooseLanguage   = "choose_language"
	EventEnterName        = "enter_name"
	EventEnterEmail       = "enter_email"
	EventGiveConsent      = "give_consent"
	EventChooseCategory   = "choose_category"
	EventChooseDifficulty = "choose_difficulty"
	EventFinish           = "finish"
)

func newMachine(state string) *fsm.FSM {
	return fsm.NewFSM(
		state,
		fsm.Events{
			{Name: EventChooseLanguage, Src: []string{StateChoosingLanguage}, Dst: StateEnteringName},
			{Name: EventEnterName, Src: []string{StateEnteringName}, Dst: StateEnteringEmail},
			{Name: EventEnterEmail, Src: []string{StateEnteringEmail}, Dst: StateConfirmingConsent},
			{Name: EventGiveConsent, Src: []string{StateConfirmingConsent}, Dst: StateChoosingCategory},
			{Name: EventChooseCategory, Src: []string{StateChoosingCategory}, Dst: StateChoosingDifficulty},
			{Name: EventChooseDifficulty, Src: []string{StateChoosingDifficulty}, Dst: StateAnswering},
			{Name: EventFinish, Src: []string{StateAnswering}, Dst: StateFinished},
		},
		fsm.Callbacks{},
	)
}

// Session is one user's in-flight quiz attempt. The transport may deliver
// a message and a fired timer concurrently, so all access goes through the
// session mutex; different users' sessions are independent.
type Session struct {
	mu      sync.Mutex
	machine *fsm.FSM

	UserID    int64
	AttemptID string

	Language   string
	Name       string
	Email      string
	Category   string
	Difficulty string

	// Current is the zero-based index of the question being asked.
	// Current == len(Answers) holds throughout the answering state.
	Current int
	Answers []quiz.Answer

	// LastMessageID is the message carrying the current question, so the
	// feedback can replace it in place.
	LastMessageID int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a session at the language prompt.
func New(userID int64) *Session {
	now := time.Now()
	return &Session{
		machine:   newMachine(StateChoosingLanguage),
		UserID:    userID,
		AttemptID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// State returns the current conversation state.
func (s *Session) State() string {
	return s.machine.Current()
}

// Fire applies an event to the state machine. An event that is not valid
// for the current state returns an error and leaves the state unchanged.
func (s *Session) Fire(ctx context.Context, event string) error {
	err := s.machine.Event(ctx, event)
	if err == nil {
		s.UpdatedAt = time.Now()
	}
	return err
}

// Can reports whether the event is valid in the current state.
func (s *Session) Can(event string) bool {
	return s.machine.Can(event)
}

// RecordAnswer appends one answer and advances the question cursor in a
// single step, which is what keeps Current == len(Answers).
func (s *Session) RecordAnswer(selected int, correct bool) {
	s.Answers = append(s.Answers, quiz.Answer{Selected: selected, Correct: correct})
	s.Current++
	s.UpdatedAt = time.Now()
}

// Touch bumps the idle clock without changing anything else.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// Record is the serializable form of a session, used by persistent stores.
type Record struct {
	UserID        int64         `json:"user_id"`
	AttemptID     string        `json:"attempt_id"`
	State         string        `json:"state"`
	Language      string        `json:"language"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Category      string        `json:"category"`
	Difficulty    string        `json:"difficulty"`
	Current       int           `json:"current"`
	Answers       []quiz.Answer `json:"answers"`
	LastMessageID int           `json:"last_message_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Record snapshots the session. Callers hold the session lock.
func (s *Session) Record() Record {
	return Record{
		UserID:        s.UserID,
		AttemptID:     s.AttemptID,
		State:         s.machine.Current(),
		Language:      s.Language,
		Name:          s.Name,
		Email:         s.Email,
		Category:      s.Category,
		Difficulty:    s.Difficulty,
		Current:       s.Current,
		Answers:       s.Answers,
		LastMessageID: s.LastMessageID,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// FromRecord rebuilds a session, with the machine positioned at the
// stored state.
func FromRecord(r Record) *Session {
	return &Session{
		machine:       newMachine(r.State),
		UserID:        r.UserID,
		AttemptID:     r.AttemptID,
		Language:      r.Language,
		Name:          r.Name,
		Email:         r.Email,
		Category:      r.Category,
		Difficulty:    r.Difficulty,
		Current:       r.Current,
		Answers:       r.Answers,
		LastMessageID: r.LastMessageID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
