// Package trademark holds the domain model of trademark screening: the
// candidate under examination, the registry records it is compared against,
// the per-check payloads and the report that aggregates them.
package trademark

import (
	"strings"

	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// User-facing strings. The registry and its users are Korean, so messages
// stay in Korean on the wire.
const (
	NoApplicationDate   = "출원일 정보 없음"
	NoSimilarNameMsg    = "유사한 이름을 찾을 수 없습니다."
	NoSimilarPronunMsg  = "유사한 상표명 없음"
	LargeEntityLabel    = " (대형 기업)"
	sameNameMsgTemplate = "\"%s\"이라는 같은 이름이 상표로 등록이 되어 있어 해당 명은 상표 등록이 불가능합니다."
)

// Candidate is a proposed mark under examination. It lives for one screening
// run only.
type Candidate struct {
	Name            string
	ProductCategory string
	RequesterID     string
}

// NewCandidate validates the raw inputs. A name that is empty after
// normalization is rejected; the category may be empty.
func NewCandidate(name, productCategory, requesterID string) (Candidate, error) {
	if Normalize(name) == "" {
		return Candidate{}, apperrors.New(apperrors.ErrCodeCandidateInvalid, "trademark name is required")
	}
	return Candidate{
		Name:            name,
		ProductCategory: productCategory,
		RequesterID:     requesterID,
	}, nil
}

// NormalizedName returns the candidate name in canonical form.
func (c Candidate) NormalizedName() string {
	return Normalize(c.Name)
}

// MarkRecord is a registered mark as exposed by the search index. The
// engine never writes it.
type MarkRecord struct {
	Title           string `json:"title"`
	RomanizedTitle  string `json:"eng_title,omitempty"`
	IPATitle        string `json:"ipa_title,omitempty"`
	ApplicationDate string `json:"applicationDate,omitempty"`
	ImageReference  string `json:"bigDrawing,omitempty"`
}

// DateOrPlaceholder returns the application date, or NoApplicationDate.
func (m MarkRecord) DateOrPlaceholder() string {
	if strings.TrimSpace(m.ApplicationDate) == "" {
		return NoApplicationDate
	}
	return m.ApplicationDate
}

// SimilarMark is one orthographic hit.
type SimilarMark struct {
	Title           string  `json:"title"`
	ApplicationDate string  `json:"application_date"`
	ImageReference  *string `json:"image_url"`
}

// SimilarityScore is one accepted phonetic hit.
type SimilarityScore struct {
	MatchedTitle    string  `json:"matched_title"`
	Score           float64 `json:"score"`
	LargeEntity     bool    `json:"large_entity"`
	ApplicationDate string  `json:"application_date"`
	ImageReference  *string `json:"image_url"`
}

// DisplayTitle is the title as shown to examiners, carrying the large-entity
// label when applicable.
func (s SimilarityScore) DisplayTitle() string {
	if s.LargeEntity {
		return s.MatchedTitle + LargeEntityLabel
	}
	return s.MatchedTitle
}

// NegativeToken is a token the sentiment screen flagged.
type NegativeToken struct {
	Token    string  `json:"name"`
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// ClassScore is one class returned by the sentiment classifier.
type ClassScore struct {
	Label string  `json:"class_name"`
	Score float64 `json:"class_score"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
