package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit caps the number of results below the configured maximum.
	// Zero or negative uses the configured maximum.
	Limit int
}

// SearchResult represents a single fused search hit.
type SearchResult struct {
	// DocID is the identity of the matched document.
	DocID int64

	// Filename is the display name.
	Filename string

	// Location addresses the file or archive member.
	Location Location

	// Snippet is a highlighted excerpt.
	Snippet string

	// Score is the fused relevance.
	Score float64

	// Semantic is the clipped cosine similarity in [0,1].
	Semantic float64

	// Lexical is the normalised fuzzy score in [0,1].
	Lexical float64
}

// FusionSettings holds the tunable hybrid ranking policy.
type FusionSettings struct {
	// Alpha weights the semantic score.
	Alpha float64

	// Beta weights the lexical score.
	Beta float64

	// MinSemantic drops documents below this semantic score that have no
	// lexical score.
	MinSemantic float64

	// BonusSemantic and BonusLexical gate the agreement bonus. Both scores
	// must strictly exceed their gate.
	BonusSemantic float64
	BonusLexical  float64

	// Bonus is added when both signals agree.
	Bonus float64

	// MaxResults caps the result list.
	MaxResults int

	// LexicalLimit caps the full-text candidate set.
	LexicalLimit int

	// ContentPrefix is the number of content runes used for token-set scoring.
	ContentPrefix int

	// SnippetTokens is the excerpt window in tokens.
	SnippetTokens int

	// IncludeLexicalOnly admits documents that matched lexically but have no
	// semantic score.
	IncludeLexicalOnly bool
}

// DefaultFusionSettings returns the hand-tuned ranking policy.
func DefaultFusionSettings() FusionSettings {
	return FusionSettings{
		Alpha:              0.65,
		Beta:               0.35,
		MinSemantic:        0.15,
		BonusSemantic:      0.4,
		BonusLexical:       0.6,
		Bonus:              0.10,
		MaxResults:         50,
		LexicalLimit:       100,
		ContentPrefix:      5000,
		SnippetTokens:      15,
		IncludeLexicalOnly: true,
	}
}

// Fuse combines a semantic and lexical score. ok is false when the document
// should not be considered at all.
func (f FusionSettings) Fuse(semantic float64, hasSemantic bool, lexical float64, hasLexical bool) (float64, bool) {
	if !hasSemantic {
		if !hasLexical || !f.IncludeLexicalOnly {
			return 0, false
		}
		semantic = 0
	}
	if semantic < f.MinSemantic && !hasLexical {
		return 0, false
	}
	score := f.Alpha*semantic + f.Beta*lexical
	if semantic > f.BonusSemantic && lexical > f.BonusLexical {
		score += f.Bonus
	}
	if score < 0 {
		score = 0
	}
	return score, true
}
