package entity

import "strings"

// Level represents the difficulty level of a lesson or module.
type Level string

const (
	LevelUnspecified  Level = ""
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel converts an arbitrary string into a supported Level value.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "beginner":
		return LevelBeginner
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	default:
		return LevelUnspecified
	}
}

// Category represents the teaching category of a lesson.
type Category string

const (
	CategoryUnspecified   Category = ""
	CategoryVocabulary    Category = "vocabulary"
	CategoryGrammar       Category = "grammar"
	CategoryPronunciation Category = "pronunciation"
	CategoryCulture       Category = "culture"
)

// ParseCategory converts an arbitrary string into a supported Category value.
func ParseCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "vocabulary":
		return CategoryVocabulary
	case "grammar":
		return CategoryGrammar
	case "pronunciation":
		return CategoryPronunciation
	case "culture":
		return CategoryCulture
	default:
		return CategoryUnspecified
	}
}

// WarningSeverity grades non-blocking quality warnings.
type WarningSeverity string

const (
	SeverityLow    WarningSeverity = "low"
	SeverityMedium WarningSeverity = "medium"
	SeverityHigh   WarningSeverity = "high"
)

// CommentSeverity grades reviewer comments.
type CommentSeverity string

const (
	CommentMinor    CommentSeverity = "minor"
	CommentMajor    CommentSeverity = "major"
	CommentCritical CommentSeverity = "critical"
)

// AssetClass groups file extensions into the structural-check families.
type AssetClass string

const (
	AssetUnknown AssetClass = ""
	AssetAudio   AssetClass = "audio"
	AssetImage   AssetClass = "image"
	AssetVideo   AssetClass = "video"
	AssetSVG     AssetClass = "svg"
)

var (
	audioExtensions = map[string]struct{}{".mp3": {}, ".ogg": {}, ".wav": {}}
	imageExtensions = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}}
	videoExtensions = map[string]struct{}{".mp4": {}, ".webm": {}}
)

// ClassifyAsset maps a file extension (with leading dot) to its asset class.
// ".ogg" is treated as audio even though the video allow-list accepts it too.
func ClassifyAsset(ext string) AssetClass {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == ".svg" {
		return AssetSVG
	}
	if _, ok := audioExtensions[ext]; ok {
		return AssetAudio
	}
	if _, ok := imageExtensions[ext]; ok {
		return AssetImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return AssetVideo
	}
	return AssetUnknown
}

// ValidAudioPath reports whether the path carries an allowed audio extension.
func ValidAudioPath(path string) bool { return hasExtension(path, audioExtensions) }

// ValidImagePath reports whether the path carries an allowed image extension.
func ValidImagePath(path string) bool { return hasExtension(path, imageExtensions) }

// ValidVideoPath reports whether the path carries an allowed video extension.
// ".ogg" containers are accepted for video as well as audio.
func ValidVideoPath(path string) bool {
	return hasExtension(path, videoExtensions) || strings.HasSuffix(strings.ToLower(path), ".ogg")
}

func hasExtension(path string, allowed map[string]struct{}) bool {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return false
	}
	_, ok := allowed[strings.ToLower(path[idx:])]
	return ok
}
