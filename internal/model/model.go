package model

// Status values written to the report. These are wire-format constants from
// the evaluation output contract, not user-facing strings, so they are never
// localized.
const (
	StatusCorrect   = "Doğru"
	StatusVeryClose = "Çok Yakın"
	StatusClose     = "Yakın"
	StatusPartial   = "Kısmen Doğru"
	StatusWrong     = "Yanlış"
	StatusBlank     = "Boş"
)

// Scoring method values.
const (
	MethodLexical  = "String"
	MethodSemantic = "LLM"
	MethodBlank    = "Boş"
)

// StudentSubmission holds the OCR-extracted answers for one student.
// Produced externally; immutable once loaded.
type StudentSubmission struct {
	StudentID   string         `json:"student_id"`
	StudentName string         `json:"student_name"`
	Answers     map[int]string `json:"answers"`
}

// AnswerKey maps question number to a reference answer. An entry may encode
// several acceptable alternatives separated by "/".
type AnswerKey map[int]string

// QuestionDecision is the graded outcome for a single question. It is built
// once by the evaluator and never mutated afterwards.
type QuestionDecision struct {
	Answer           string  `json:"ogrenci_cevabi"`
	AnswerNormalized string  `json:"ogrenci_cevabi_normalized"`
	CorrectAnswer    string  `json:"dogru_cevap"`
	Coefficient      float64 `json:"puan_katsayi"`
	Status           string  `json:"durum"`
	Method           string  `json:"yontem"`
	MatchedAnswer    string  `json:"eslesen_cevap"`
	LexicalScore     float64 `json:"string_benzerlik"`
	SemanticScore    int     `json:"llm_benzerlik"`
	Numeric          *bool   `json:"sayisal_cevap,omitempty"`
	FinalScore       float64 `json:"benzerlik_skoru"`
}

// Criteria describes the active grading thresholds in the report summary.
type Criteria struct {
	Numeric string `json:"sayisal,omitempty"`
	Verbal  string `json:"sozel"`
}

// Summary aggregates per-question decisions. NumericCount and VerbalCount are
// only present under the binary policy, which tracks the numeric/verbal split.
type Summary struct {
	TotalScore     float64  `json:"toplam_puan"`
	MaxScore       int      `json:"max_puan"`
	Correct        int      `json:"dogru"`
	Wrong          int      `json:"yanlis"`
	Blank          int      `json:"bos"`
	TotalQuestions int      `json:"toplam_soru"`
	NumericCount   *int     `json:"sayisal_soru_sayisi,omitempty"`
	VerbalCount    *int     `json:"sozel_soru_sayisi,omitempty"`
	Criteria       Criteria `json:"degerlendirme_kriteri"`
}

// ExamReport is the final grading document for one submission.
type ExamReport struct {
	StudentID   string                   `json:"ogrenci_no"`
	StudentName string                   `json:"ogrenci_adi"`
	Questions   map[int]QuestionDecision `json:"sorular"`
	Summary     Summary                  `json:"ozet"`
}
