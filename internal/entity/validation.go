package entity

// Validation error types used for quality-score penalties. The schema and
// graph validators emit ErrorTypeSchema and the reference-specific types;
// the remaining categories come from reviewer tooling upstream.
const (
	ErrorTypeSchema        = "schema"
	ErrorTypeContent       = "content"
	ErrorTypeAsset         = "asset"
	ErrorTypeAccessibility = "accessibility"
	ErrorTypeCultural      = "cultural"
	ErrorTypeLanguage      = "language"

	ErrorTypePrerequisite = "prerequisite"
	ErrorTypeNextLesson   = "nextLesson"
	ErrorTypeModuleLesson = "moduleLesson"
	ErrorTypeQuizAnswer   = "quizAnswer"
)

// ValidationError is a single hard violation. Path is a JSON-pointer-like
// locator keyed by entity id, e.g. "lessons[lesson-001].prerequisites".
type ValidationError struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Value   any    `json:"offendingValue,omitempty"`
}

// ValidationWarning is a non-blocking quality advisory.
type ValidationWarning struct {
	Type     string          `json:"type"`
	Path     string          `json:"path"`
	Message  string          `json:"message"`
	Severity WarningSeverity `json:"severity"`
}

// ValidationResult is an immutable snapshot recomputed on every validation
// call; it is never partially mutated.
type ValidationResult struct {
	IsValid  bool                `json:"isValid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}
