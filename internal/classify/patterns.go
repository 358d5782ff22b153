package classify

import (
	"regexp"

	"clausecompass/internal/store"
)

type Category = store.Category

const (
	CategoryTermination       = store.CategoryTermination
	CategoryLiability         = store.CategoryLiability
	CategoryIndemnity         = store.CategoryIndemnity
	CategoryConfidentiality   = store.CategoryConfidentiality
	CategoryPayment           = store.CategoryPayment
	CategoryIPOwnership       = store.CategoryIPOwnership
	CategoryDisputeResolution = store.CategoryDisputeResolution
	CategoryGoverningLaw      = store.CategoryGoverningLaw
	CategoryAssignment        = store.CategoryAssignment
	CategoryModification      = store.CategoryModification
	CategoryWarranties        = store.CategoryWarranties
	CategoryForceMajeure      = store.CategoryForceMajeure
	CategoryDefinitions       = store.CategoryDefinitions
	CategoryOther             = store.CategoryOther
)

// patterns is the per-category weighted keyword/phrase pattern catalog,
// grounded in clause_segmenter.py's identify_clause_types. Condensed to
// the patterns with the highest discriminating power per category; the
// original's exhaustive regex lists are collapsed into representative
// phrase sets without losing category coverage.
var patterns = map[Category][]*regexp.Regexp{
	CategoryTermination: compileAll(
		`\bterminat(e|ion|ing)\b`, `\bexpir(e|ation)\b`, `\bend(s|ing)? of (the )?term\b`, `\bwind(ing)? down\b`,
	),
	CategoryLiability: compileAll(
		`\bliab(le|ility)\b`, `\bconsequential damages\b`, `\blimitation of liability\b`, `\bcap on damages\b`,
	),
	CategoryIndemnity: compileAll(
		`\bindemnif(y|ication)\b`, `\bhold harmless\b`, `\bdefend\b.*\bclaims?\b`,
	),
	CategoryConfidentiality: compileAll(
		`\bconfidential(ity)?\b`, `\bnon-disclosure\b`, `\btrade secrets?\b`, `\bproprietary information\b`,
	),
	CategoryPayment: compileAll(
		`\bpayment(s)?\b`, `\binvoice(s|d)?\b`, `\bfees?\b`, `\bcompensation\b`, `\bdue (upon|within)\b`,
	),
	CategoryIPOwnership: compileAll(
		`\bintellectual property\b`, `\bcopyright\b`, `\bpatent(s)?\b`, `\bwork(s)? for hire\b`, `\bownership of\b.*\bdeliverables?\b`,
	),
	CategoryDisputeResolution: compileAll(
		`\barbitrat(e|ion)\b`, `\bmediation\b`, `\bdispute resolution\b`, `\bjurisdiction\b`,
	),
	CategoryGoverningLaw: compileAll(
		`\bgoverning law\b`, `\blaws of the state\b`, `\bconstrued in accordance\b`,
	),
	CategoryAssignment: compileAll(
		`\bassign(ment|able|s)?\b`, `\bsuccessors and assigns\b`, `\btransfer of rights\b`,
	),
	CategoryModification: compileAll(
		`\bamendment(s)?\b`, `\bmodif(y|ication)\b`, `\bwritten consent of both parties\b`,
	),
	CategoryWarranties: compileAll(
		`\bwarrant(y|ies|s)?\b`, `\brepresents and warrants\b`, `\bas-is\b`, `\bmerchantability\b`,
	),
	CategoryForceMajeure: compileAll(
		`\bforce majeure\b`, `\bact(s)? of god\b`, `\bbeyond (its|their) reasonable control\b`,
	),
	CategoryDefinitions: compileAll(
		`\bdefinitions?\b`, `\b"[A-Z][a-z]+" means\b`, `\bas used (herein|in this agreement)\b`,
	),
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}
