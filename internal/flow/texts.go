package flow

// Texts is one language's message bundle. HTML parse mode, so bundles may
// carry <b> and <a> tags.
type Texts struct {
	Start            string
	NamePrompt       string
	EmailPrompt      string
	Consent          string
	ConsentButton    string
	CategoryPrompt   string
	DifficultyPrompt string
	AlreadyDone      string
	Unavailable      string
	Question         string // question number, total, text
	Correct          string
	Incorrect        string // correct option text
	Explanation      string
	Final            string // score, total
	NotSaved         string
	QRCaption        string
}

var texts = map[string]Texts{
	"ru": {
		Start:            "⚛️ Добро пожаловать в опрос о Росатоме!\n\nВыберите язык:",
		NamePrompt:       "📝 Пожалуйста, укажите ваше имя:",
		EmailPrompt:      "📧 Укажите ваш email:",
		Consent:          `🛡️ Нажимая «Подтверждаю», вы даёте согласие на обработку персональных данных в соответствии с <a href="https://rosatom.ru/privacy">политикой конфиденциальности</a>.`,
		ConsentButton:    "✅ Подтверждаю",
		CategoryPrompt:   "📚 Выберите категорию:",
		DifficultyPrompt: "🎯 Выберите уровень сложности:",
		AlreadyDone:      "Вы уже прошли опрос. Спасибо за интерес к Росатому!",
		Unavailable:      "⚠️ Временные технические неполадки. Попробуйте начать опрос через /start",
		Question:         "Вопрос %d из %d:\n\n%s",
		Correct:          "✅ Верно!",
		Incorrect:        "❌ Неверно.\nПравильный ответ: <b>%s</b>",
		Explanation:      "\nℹ️ %s",
		Final:            "Вы ответили правильно на <b>%d</b> из %d вопросов.",
		NotSaved:         "⚠️ Результат не сохранён из-за технической ошибки.",
		QRCaption:        "Отсканируйте QR-код, чтобы узнать больше о Росатоме:",
	},
	"en": {
		Start:            "⚛️ Welcome to the Rosatom quiz!\n\nChoose your language:",
		NamePrompt:       "📝 Please enter your first name:",
		EmailPrompt:      "📧 Please provide your email:",
		Consent:          `🛡️ By clicking "I Agree", you consent to the processing of personal data in accordance with the <a href="https://rosatom.ru/privacy">privacy policy</a>.`,
		ConsentButton:    "✅ I Agree",
		CategoryPrompt:   "📚 Choose a category:",
		DifficultyPrompt: "🎯 Choose a difficulty level:",
		AlreadyDone:      "You've already completed the quiz. Thank you for your interest in Rosatom!",
		Unavailable:      "⚠️ Temporary technical issues. Please try starting the quiz again with /start",
		Question:         "Question %d out of %d:\n\n%s",
		Correct:          "✅ Correct!",
		Incorrect:        "❌ Incorrect.\nCorrect answer: <b>%s</b>",
		Explanation:      "\nℹ️ %s",
		Final:            "You answered <b>%d</b> out of %d questions correctly.",
		NotSaved:         "⚠️ Your result was not saved due to a technical error.",
		QRCaption:        "Scan the QR code to learn more about Rosatom:",
	},
}

var langButtons = []struct {
	Code  string
	Label string
}{
	{"ru", "🇷🇺 Русский"},
	{"en", "🇬🇧 English"},
}

// textsFor falls back to Russian, the default bundle before a language is
// chosen.
func textsFor(lang string) Texts {
	if t, ok := texts[lang]; ok {
		return t
	}
	return texts["ru"]
}
