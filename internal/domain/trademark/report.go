package trademark

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// CheckName identifies a check in the report. The values are the wire keys.
type CheckName string

const (
	CheckSameName        CheckName = "find_same_name"
	CheckSimilarName     CheckName = "find_similar_name"
	CheckSimilarPronun   CheckName = "find_similar_pronun"
	CheckTokenize        CheckName = "tokenize"
	CheckAcceptability   CheckName = "check_elastic"
	CheckDistinctiveness CheckName = "similarity_score"
)

// AllChecks lists the checks in report order.
var AllChecks = []CheckName{
	CheckSameName, CheckSimilarName, CheckSimilarPronun,
	CheckTokenize, CheckAcceptability, CheckDistinctiveness,
}

// ExactMatch is the payload of the identical-name check.
type ExactMatch struct {
	IsConflict   bool   `json:"result"`
	MatchedTitle string `json:"matched_title,omitempty"`
	Message      string `json:"msg"`
}

// NewExactMatch builds the payload for a conflict on title, or for no
// conflict when found is false.
func NewExactMatch(title string, found bool) ExactMatch {
	if !found {
		return ExactMatch{}
	}
	return ExactMatch{
		IsConflict:   true,
		MatchedTitle: title,
		Message:      fmt.Sprintf(sameNameMsgTemplate, title),
	}
}

// SimilarNames is the payload of the orthographic check.
type SimilarNames struct {
	AnyFound bool          `json:"result"`
	Matches  []SimilarMark `json:"data,omitempty"`
	Message  string        `json:"msg,omitempty"`
}

// NewSimilarNames builds the payload from the collected hits.
func NewSimilarNames(matches []SimilarMark) SimilarNames {
	if len(matches) == 0 {
		return SimilarNames{Message: NoSimilarNameMsg}
	}
	return SimilarNames{AnyFound: true, Matches: matches}
}

// SimilarMarkFrom converts an index record into an orthographic hit.
func SimilarMarkFrom(m MarkRecord) SimilarMark {
	return SimilarMark{
		Title:           m.Title,
		ApplicationDate: m.DateOrPlaceholder(),
		ImageReference:  optionalString(m.ImageReference),
	}
}

// SimilarPronunciations is the payload of the phonetic check.
type SimilarPronunciations struct {
	AnyFound bool              `json:"result"`
	Ranked   []SimilarityScore `json:"data,omitempty"`
	Message  string            `json:"msg,omitempty"`
}

// NewSimilarPronunciations builds the payload from already ranked hits.
func NewSimilarPronunciations(ranked []SimilarityScore) SimilarPronunciations {
	if len(ranked) == 0 {
		return SimilarPronunciations{Message: NoSimilarPronunMsg}
	}
	return SimilarPronunciations{AnyFound: true, Ranked: ranked}
}

// MarshalJSON adds the display title next to the raw fields.
func (s SimilarityScore) MarshalJSON() ([]byte, error) {
	type plain SimilarityScore
	return json.Marshal(struct {
		Title string `json:"title"`
		plain
	}{Title: s.DisplayTitle(), plain: plain(s)})
}

// TokenList is the payload of the tokenization listing.
type TokenList struct {
	Tokens []string `json:"tokens"`
}

// Acceptability is the payload of the social-acceptability screen.
type Acceptability struct {
	AnyNegative    bool            `json:"result"`
	NegativeTokens []NegativeToken `json:"negative_tokens"`
}

// Results holds one Outcome per check.
type Results struct {
	SameName        Outcome[ExactMatch]            `json:"find_same_name"`
	SimilarNames    Outcome[SimilarNames]          `json:"find_similar_name"`
	SimilarPronun   Outcome[SimilarPronunciations] `json:"find_similar_pronun"`
	Tokens          Outcome[TokenList]             `json:"tokenize"`
	Acceptability   Outcome[Acceptability]         `json:"check_elastic"`
	Distinctiveness Outcome[float64]               `json:"similarity_score"`
}

// Failures returns the structured error of every failed check.
func (r Results) Failures() map[CheckName]*apperrors.AppError {
	out := make(map[CheckName]*apperrors.AppError)
	add := func(name CheckName, err *apperrors.AppError) {
		if err != nil {
			out[name] = err
		}
	}
	add(CheckSameName, r.SameName.Err())
	add(CheckSimilarName, r.SimilarNames.Err())
	add(CheckSimilarPronun, r.SimilarPronun.Err())
	add(CheckTokenize, r.Tokens.Err())
	add(CheckAcceptability, r.Acceptability.Err())
	add(CheckDistinctiveness, r.Distinctiveness.Err())
	return out
}

// Report is the evidence produced for one candidate. It is built once by the
// engine and must not be modified afterwards.
type Report struct {
	ID              string    `json:"id"`
	RequesterID     string    `json:"uid,omitempty"`
	Name            string    `json:"name"`
	ProductCategory string    `json:"product_name"`
	CreatedAt       time.Time `json:"created_at"`
	Results         Results   `json:"results"`
}
