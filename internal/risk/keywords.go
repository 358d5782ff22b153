package risk

import "regexp"

// keyword is one weighted risk signal, grounded in risk_analyzer.py's
// RiskKeyword catalog: a phrase, its base weight, and an optional negative
// context that halves the hit's contribution when also present anywhere in
// the text (e.g. "consequential damages" is mitigated by "excluding
// consequential").
type keyword struct {
	pattern         *regexp.Regexp
	weight          float64
	negativeContext *regexp.Regexp
}

func kw(phrase string, weight float64, negative string) keyword {
	k := keyword{pattern: regexp.MustCompile(`(?i)\b` + phrase + `\b`), weight: weight}
	if negative != "" {
		k.negativeContext = regexp.MustCompile(`(?i)\b` + negative + `\b`)
	}
	return k
}

// keywords is the risk-keyword catalog carried from risk_analyzer.py.
var keywords = []keyword{
	kw(`unlimited liability`, 0.95, ""),
	kw(`consequential damages`, 0.8, `excluding consequential`),
	kw(`indemnify`, 0.7, ""),
	kw(`hold harmless`, 0.7, ""),
	kw(`sole discretion`, 0.6, ""),
	kw(`irrevocable`, 0.6, ""),
	kw(`perpetual`, 0.55, ""),
	kw(`non-negotiable`, 0.6, ""),
	kw(`waive(s)? (any|all) rights`, 0.75, ""),
	kw(`automatic(ally)? renew`, 0.5, `with notice`),
	kw(`liquidated damages`, 0.65, ""),
	kw(`penalty`, 0.55, ""),
	kw(`exclusive(ly)?`, 0.4, ""),
	kw(`terminate (immediately|without notice)`, 0.7, ""),
	kw(`no warrant(y|ies)`, 0.6, ""),
	kw(`as-is`, 0.45, ""),
	kw(`limitation of liability`, 0.5, `except for gross negligence`),
	kw(`cap(ped)? at`, 0.3, ""),
	kw(`breach`, 0.4, ""),
	kw(`confidential(ity)? obligations? survive`, 0.35, ""),
}

// categoryMultiplier maps a clause category onto the risk multiplier
// risk_analyzer.py's _get_category_risk_multiplier assigns it.
func categoryMultiplier(category string) float64 {
	switch category {
	case "Indemnity":
		return 1.20
	case "Liability":
		return 1.15
	case "Termination", "Assignment":
		return 1.10
	case "Dispute-Resolution", "IP-Ownership":
		return 1.05
	case "Governing-Law":
		return 0.90
	case "Modification":
		return 0.95
	case "Other":
		return 0.90
	default:
		return 1.0
	}
}
