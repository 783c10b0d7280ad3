package flow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"rosatomquiz/internal/config"
	"rosatomquiz/internal/qr"
	"rosatomquiz/internal/quiz"
	"rosatomquiz/internal/session"
	"rosatomquiz/internal/storage"
)

// Button is one inline choice. Data comes back verbatim as a callback.
type Button struct {
	Label string
	Data  string
}

// Outbox is the outbound side of the transport. SendText returns the id
// of the sent message so feedback can later replace a question in place.
type Outbox interface {
	SendText(chatID int64, text string, buttons [][]Button) (int, error)
	EditText(chatID int64, messageID int, text string) error
	SendPhoto(chatID int64, png []byte, caption string) error
}

var optionLetters = []string{"A", "B", "C", "D", "E"}

// Controller sequences one quiz conversation per user: collects language,
// name, email and consent, walks the question list, tallies the score,
// writes the result row and closes with a QR code.
type Controller struct {
	store   session.Store
	catalog *quiz.Catalog
	sink    storage.ResultSink
	out     Outbox

	delay     time.Duration
	policy    config.CheckPolicy
	targetURL string

	// schedule runs f after d without blocking the caller; swapped for an
	// immediate call in tests.
	schedule func(d time.Duration, f func())
}

func NewController(store session.Store, catalog *quiz.Catalog, sink storage.ResultSink, out Outbox, cfg *config.Config) *Controller {
	return &Controller{
		store:     store,
		catalog:   catalog,
		sink:      sink,
		out:       out,
		delay:     cfg.FeedbackDelay,
		policy:    cfg.CheckPolicy,
		targetURL: cfg.TargetURL,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// HandleStart begins (or restarts) a conversation. Users with a recorded
// attempt get the "already completed" message and no session.
func (c *Controller) HandleStart(ctx context.Context, userID int64) {
	done, err := c.sink.HasCompleted(ctx, userID)
	if err != nil {
		log.Printf("result sink check failed for user %d: %v", userID, err)
		if c.policy == config.CheckBlock {
			c.send(userID, textsFor("").Unavailable, nil)
			return
		}
		done = false
	}
	if done {
		c.send(userID, textsFor("").AlreadyDone, nil)
		return
	}

	s := session.New(userID)
	if err := c.store.Put(s); err != nil {
		log.Printf("failed to store session for user %d: %v", userID, err)
		c.send(userID, textsFor("").Unavailable, nil)
		return
	}
	log.Printf("session started: user=%d attempt=%s", userID, s.AttemptID)

	var rows [][]Button
	for _, lb := range langButtons {
		if c.catalog.HasLanguage(lb.Code) {
			rows = append(rows, []Button{{Label: lb.Label, Data: "lang_" + lb.Code}})
		}
	}
	c.send(userID, textsFor("").Start, rows)
}

// HandleCallback processes a button press. messageID is the message the
// button was attached to. Presses that are invalid for the session's
// current state are dropped; the transport has already acknowledged them.
func (c *Controller) HandleCallback(ctx context.Context, userID int64, messageID int, data string) {
	s, ok := c.store.Get(userID)
	if !ok {
		return
	}

	switch {
	case strings.HasPrefix(data, "lang_"):
		c.chooseLanguage(ctx, s, messageID, strings.TrimPrefix(data, "lang_"))
	case data == "consent_yes":
		c.giveConsent(ctx, s)
	case strings.HasPrefix(data, "cat_"):
		c.chooseCategory(ctx, s, strings.TrimPrefix(data, "cat_"))
	case strings.HasPrefix(data, "diff_"):
		c.chooseDifficulty(ctx, s, strings.TrimPrefix(data, "diff_"))
	case strings.HasPrefix(data, "ans_"):
		c.answer(ctx, s, messageID, data)
	}
}

// HandleText processes free text: the name and email capture steps. Text
// in any other state is ignored.
func (c *Controller) HandleText(ctx context.Context, userID int64, text string) {
	s, ok := c.store.Get(userID)
	if !ok {
		return
	}

	s.Lock()
	state := s.State()
	s.Unlock()

	switch state {
	case session.StateEnteringName:
		c.enterName(ctx, s, text)
	case session.StateEnteringEmail:
		c.enterEmail(ctx, s, text)
	}
}

func (c *Controller) chooseLanguage(ctx context.Context, s *session.Session, messageID int, lang string) {
	if !c.catalog.HasLanguage(lang) {
		return
	}
	s.Lock()
	if s.State() != session.StateChoosingLanguage {
		s.Unlock()
		return
	}
	s.Language = lang
	if err := s.Fire(ctx, session.EventChooseLanguage); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	// Replace the language prompt with the name prompt.
	if err := c.out.EditText(s.UserID, messageID, textsFor(lang).NamePrompt); err != nil {
		log.Printf("failed to edit message for user %d: %v", s.UserID, err)
	}
}

func (c *Controller) enterName(ctx context.Context, s *session.Session, text string) {
	name := strings.TrimSpace(text)

	s.Lock()
	if s.State() != session.StateEnteringName {
		s.Unlock()
		return
	}
	lang := s.Language
	if utf8.RuneCountInString(name) < 2 {
		s.Touch()
		s.Unlock()
		c.put(s)
		c.send(s.UserID, textsFor(lang).NamePrompt, nil)
		return
	}
	s.Name = name
	if err := s.Fire(ctx, session.EventEnterName); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	c.send(s.UserID, textsFor(lang).EmailPrompt, nil)
}

func (c *Controller) enterEmail(ctx context.Context, s *session.Session, text string) {
	email := strings.TrimSpace(text)

	s.Lock()
	if s.State() != session.StateEnteringEmail {
		s.Unlock()
		return
	}
	lang := s.Language
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		s.Touch()
		s.Unlock()
		c.put(s)
		c.send(s.UserID, textsFor(lang).EmailPrompt, nil)
		return
	}
	s.Email = email
	if err := s.Fire(ctx, session.EventEnterEmail); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	t := textsFor(lang)
	c.send(s.UserID, t.Consent, [][]Button{{{Label: t.ConsentButton, Data: "consent_yes"}}})
}

func (c *Controller) giveConsent(ctx context.Context, s *session.Session) {
	s.Lock()
	if s.State() != session.StateConfirmingConsent {
		s.Unlock()
		return
	}
	if err := s.Fire(ctx, session.EventGiveConsent); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	c.promptCategory(ctx, s)
}

// promptCategory asks for a category, or selects it outright when the
// language has only one. A single-bucket catalog therefore behaves like
// the plain, uncategorized quiz.
func (c *Controller) promptCategory(ctx context.Context, s *session.Session) {
	s.Lock()
	lang := s.Language
	s.Unlock()

	cats, err := c.catalog.Categories(lang)
	if err != nil {
		log.Printf("catalog resolution failed for user %d: %v", s.UserID, err)
		return
	}
	if len(cats) == 1 {
		c.chooseCategory(ctx, s, cats[0].ID)
		return
	}

	var rows [][]Button
	for _, cat := range cats {
		rows = append(rows, []Button{{Label: cat.Label, Data: "cat_" + cat.ID}})
	}
	c.send(s.UserID, textsFor(lang).CategoryPrompt, rows)
}

func (c *Controller) chooseCategory(ctx context.Context, s *session.Session, id string) {
	s.Lock()
	if s.State() != session.StateChoosingCategory {
		s.Unlock()
		return
	}
	lang := s.Language
	s.Unlock()

	if _, err := c.catalog.Difficulties(lang, id); err != nil {
		return
	}

	s.Lock()
	if s.State() != session.StateChoosingCategory {
		s.Unlock()
		return
	}
	s.Category = id
	if err := s.Fire(ctx, session.EventChooseCategory); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	c.promptDifficulty(ctx, s)
}

func (c *Controller) promptDifficulty(ctx context.Context, s *session.Session) {
	s.Lock()
	lang, cat := s.Language, s.Category
	s.Unlock()

	diffs, err := c.catalog.Difficulties(lang, cat)
	if err != nil {
		log.Printf("catalog resolution failed for user %d: %v", s.UserID, err)
		return
	}
	if len(diffs) == 1 {
		c.chooseDifficulty(ctx, s, diffs[0].ID)
		return
	}

	var rows [][]Button
	for _, d := range diffs {
		rows = append(rows, []Button{{Label: d.Label, Data: "diff_" + d.ID}})
	}
	c.send(s.UserID, textsFor(lang).DifficultyPrompt, rows)
}

func (c *Controller) chooseDifficulty(ctx context.Context, s *session.Session, id string) {
	s.Lock()
	if s.State() != session.StateChoosingDifficulty {
		s.Unlock()
		return
	}
	lang, cat := s.Language, s.Category
	s.Unlock()

	if _, err := c.catalog.QuestionsFor(lang, cat, id); err != nil {
		return
	}

	s.Lock()
	if s.State() != session.StateChoosingDifficulty {
		s.Unlock()
		return
	}
	s.Difficulty = id
	s.Answers = nil
	s.Current = 0
	if err := s.Fire(ctx, session.EventChooseDifficulty); err != nil {
		s.Unlock()
		return
	}
	s.Unlock()
	c.put(s)

	c.sendQuestion(ctx, s)
}

// active reports whether s is still the stored session for its user.
// A /start during the feedback delay replaces the session; a pending
// continuation for the replaced attempt must not touch the new one.
func (c *Controller) active(s *session.Session) bool {
	cur, ok := c.store.Get(s.UserID)
	return ok && cur.AttemptID == s.AttemptID
}

// sendQuestion emits the session's current question, or finishes the quiz
// when the cursor has moved past the end of the list.
func (c *Controller) sendQuestion(ctx context.Context, s *session.Session) {
	if !c.active(s) {
		return
	}
	s.Lock()
	if s.State() != session.StateAnswering {
		s.Unlock()
		return
	}
	lang, cat, diff, idx := s.Language, s.Category, s.Difficulty, s.Current
	s.Unlock()

	questions, err := c.catalog.QuestionsFor(lang, cat, diff)
	if err != nil {
		log.Printf("catalog resolution failed for user %d: %v", s.UserID, err)
		return
	}
	if idx >= len(questions) {
		c.finish(ctx, s)
		return
	}

	q := questions[idx]
	t := textsFor(lang)
	body := fmt.Sprintf(t.Question, idx+1, len(questions), q.Text)

	var rows [][]Button
	for i, opt := range q.Options {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s) %s", optionLetters[i], opt),
			Data:  fmt.Sprintf("ans_%d_%d", idx, i),
		}})
	}

	msgID, err := c.out.SendText(s.UserID, body, rows)
	if err != nil {
		log.Printf("failed to send question to user %d: %v", s.UserID, err)
		c.send(s.UserID, t.Unavailable, nil)
		return
	}
	s.Lock()
	s.LastMessageID = msgID
	s.Unlock()
	c.put(s)
}

// answer handles an ans_<qidx>_<opt> callback. The carried question index
// must match the session cursor; anything else is a stale or duplicate
// press and is dropped without touching the session.
func (c *Controller) answer(ctx context.Context, s *session.Session, messageID int, data string) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return
	}
	qidx, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	opt, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	s.Lock()
	if s.State() != session.StateAnswering {
		s.Unlock()
		return
	}
	lang, cat, diff := s.Language, s.Category, s.Difficulty
	questions, catErr := c.catalog.QuestionsFor(lang, cat, diff)
	if catErr != nil || qidx != s.Current || qidx >= len(questions) {
		s.Unlock()
		return
	}
	q := questions[qidx]
	if opt < 0 || opt >= len(q.Options) {
		s.Unlock()
		return
	}
	correct := opt == q.Correct
	s.RecordAnswer(opt, correct)
	s.Unlock()
	c.put(s)

	t := textsFor(lang)
	feedback := t.Correct
	if !correct {
		feedback = fmt.Sprintf(t.Incorrect, q.Options[q.Correct])
	}
	feedback += fmt.Sprintf(t.Explanation, q.Explanation)

	// Replace the question message so the pressed keyboard disappears.
	if messageID != 0 {
		if err := c.out.EditText(s.UserID, messageID, feedback); err != nil {
			log.Printf("failed to edit message for user %d: %v", s.UserID, err)
		}
	} else {
		c.send(s.UserID, feedback, nil)
	}

	// Give the user time to read the explanation, then continue. The
	// continuation either asks the next question or finishes the quiz;
	// other sessions are not blocked.
	c.schedule(c.delay, func() {
		c.sendQuestion(context.Background(), s)
	})
}

// finish computes the score, writes the result row and closes the
// conversation. A failed write degrades to a "not saved" notice; the
// user still sees their score.
func (c *Controller) finish(ctx context.Context, s *session.Session) {
	if !c.active(s) {
		return
	}
	s.Lock()
	if s.State() != session.StateAnswering {
		s.Unlock()
		return
	}
	if err := s.Fire(ctx, session.EventFinish); err != nil {
		s.Unlock()
		return
	}
	rec := storage.Record{
		UserID:     s.UserID,
		Name:       s.Name,
		Email:      s.Email,
		Language:   s.Language,
		Category:   s.Category,
		Difficulty: s.Difficulty,
		Score:      quiz.Score(s.Answers),
		Timestamp:  time.Now(),
	}
	total := len(s.Answers)
	attempt := s.AttemptID
	s.Unlock()

	t := textsFor(rec.Language)
	final := fmt.Sprintf(t.Final, rec.Score, total)
	if err := c.sink.Append(ctx, rec); err != nil {
		log.Printf("failed to save result: user=%d attempt=%s: %v", rec.UserID, attempt, err)
		final += "\n\n" + t.NotSaved
	} else {
		log.Printf("result saved: user=%d attempt=%s score=%d/%d", rec.UserID, attempt, rec.Score, total)
	}
	c.send(s.UserID, final, nil)

	png, err := qr.Generate(c.targetURL)
	if err != nil {
		log.Printf("failed to generate qr code for user %d: %v", s.UserID, err)
	} else if err := c.out.SendPhoto(s.UserID, png, t.QRCaption); err != nil {
		log.Printf("failed to send qr code to user %d: %v", s.UserID, err)
	}

	if err := c.store.Delete(s.UserID); err != nil {
		log.Printf("failed to delete session for user %d: %v", s.UserID, err)
	}
}

func (c *Controller) send(chatID int64, text string, rows [][]Button) {
	if _, err := c.out.SendText(chatID, text, rows); err != nil {
		log.Printf("failed to send message to user %d: %v", chatID, err)
	}
}

func (c *Controller) put(s *session.Session) {
	if err := c.store.Put(s); err != nil {
		log.Printf("failed to store session for user %d: %v", s.UserID, err)
	}
}
