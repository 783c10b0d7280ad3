package quiz

// Question is one multiple-choice entry of the catalog. Immutable after load.
type Question struct {
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct_option_index"`
	Explanation string   `json:"explanation"`
}

// Difficulty groups the ordered question list shown for one
// language/category/difficulty selection.
type Difficulty struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Questions []Question `json:"questions"`
}

// Category is a selectable group of difficulties. Label carries the
// button text in the category's own language.
type Category struct {
	ID           string       `json:"id"`
	Label        string       `json:"label"`
	Difficulties []Difficulty `json:"difficulties"`
}

// Answer records one answered question: which option the user picked and
// whether it matched the question's correct option.
type Answer struct {
	Selected int  `json:"selected"`
	Correct  bool `json:"correct"`
}

// Score counts correct answers. Computed once at quiz completion from the
// immutable answer sequence.
func Score(answers []Answer) int {
	score := 0
	for _, a := range answers {
		if a.Correct {
			score++
		}
	}
	return score
}
