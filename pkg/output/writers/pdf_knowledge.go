package writers

import "strings"

// metricDisplayNames maps metric keys to the labels used in PDF tables.
var metricDisplayNames = map[string]string{
	"risk_score":      "Risk Score",
	"duration_months": "Duration",
	"budget_max":      "Budget Max",
	"budget_min":      "Budget Min",
	"red_flags":       "Red Flags",
}

// metricDisplayName returns the table label for a metric key, falling
// back to a title-cased version of the key itself.
func metricDisplayName(name string) string {
	if label, ok := metricDisplayNames[name]; ok {
		return label
	}
	label := strings.ReplaceAll(name, "_", " ")
	if label == "" {
		return name
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// flagCategoryInfo describes one red flag category with due-diligence
// guidance for the reviewer.
type flagCategoryInfo struct {
	Title    string
	Guidance string
}

// flagCategoryOrder fixes the matching priority for classifyRedFlag.
// A flag mentioning both a contract and a deadline classifies as
// contract because contract appears first here.
var flagCategoryOrder = []string{
	"contract",
	"financial",
	"schedule",
	"compliance",
	"insurance",
	"legal",
	"personnel",
	"reputation",
}

// flagCategoryKeywords maps each category to the keywords that assign a
// red flag to it. Matching is case-insensitive substring.
var flagCategoryKeywords = map[string][]string{
	"contract":   {"contract", "addendum", "unsigned", "signature", "clause", "terms", "scope change"},
	"financial":  {"budget", "cost", "overrun", "bond", "payment", "cash", "financ", "price", "escalation"},
	"schedule":   {"deadline", "delay", "schedule", "timeline", "late", "milestone"},
	"compliance": {"permit", "license", "certif", "regulat", "environmental", "zoning", "code violation"},
	"insurance":  {"insurance", "liabilit", "coverage", "indemn", "warranty"},
	"legal":      {"litigation", "lawsuit", "dispute", "arbitration", "legal claim", "lien"},
	"personnel":  {"subcontractor", "staffing", "labor", "workforce", "turnover", "union", "key personnel"},
	"reputation": {"reference", "past performance", "default", "terminated", "debarred", "blacklist"},
}

// flagCategories holds the due-diligence guidance rendered in the
// red flag review section.
var flagCategories = map[string]flagCategoryInfo{
	"contract": {
		Title: "Contract and Documentation",
		Guidance: "Request fully executed copies of every contract document, including all addenda and scope " +
			"changes, before shortlisting the bid. Have counsel review any non-standard clauses and confirm " +
			"that signature authority was verified for each party.",
	},
	"financial": {
		Title: "Financial Exposure",
		Guidance: "Reconcile the quoted budget against the bill of quantities and confirm how cost escalation " +
			"is handled. Verify that performance and payment bonds are in place and that the bidder's recent " +
			"financial statements support a project of this size.",
	},
	"schedule": {
		Title: "Schedule Risk",
		Guidance: "Walk the proposed timeline against known permit lead times and seasonal constraints. Ask the " +
			"bidder to substantiate any milestone that looks compressed and confirm liquidated damages terms " +
			"for late delivery.",
	},
	"compliance": {
		Title: "Permits and Compliance",
		Guidance: "Confirm the status of every required permit, license, and certification with the issuing " +
			"authority rather than relying on the bid documents. Flag any pending environmental or zoning " +
			"decision as a hard dependency in the project plan.",
	},
	"insurance": {
		Title: "Insurance and Warranty",
		Guidance: "Obtain current certificates of insurance and check coverage limits against contract " +
			"requirements. Review indemnification and warranty language with the broker before award.",
	},
	"legal": {
		Title: "Legal Disputes",
		Guidance: "Search court and arbitration records for active proceedings involving the bidder. Ask for " +
			"disclosure of pending claims and liens, and assess whether an adverse outcome would impair the " +
			"bidder's ability to deliver.",
	},
	"personnel": {
		Title: "Staffing and Subcontractors",
		Guidance: "Verify that named key personnel are actually committed to this project and review the " +
			"subcontracting plan for single points of failure. Confirm labor agreements cover the full " +
			"project window.",
	},
	"reputation": {
		Title: "Track Record",
		Guidance: "Contact references from comparable completed projects and check debarment registers. A " +
			"history of defaults or terminated engagements warrants an independent capability assessment " +
			"before proceeding.",
	},
}

// classifyRedFlag assigns a red flag to a category by keyword match.
// Unmatched flags fall into the general category.
func classifyRedFlag(flag string) string {
	lower := strings.ToLower(flag)
	for _, category := range flagCategoryOrder {
		for _, keyword := range flagCategoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}
	return "general"
}

// flagCategoryFor returns the guidance entry for a category, with a
// generic fallback for unknown categories.
func flagCategoryFor(category string) flagCategoryInfo {
	if info, ok := flagCategories[category]; ok {
		return info
	}
	return flagCategoryInfo{
		Title: "General Review",
		Guidance: "Review the flagged item with the bid owner and record the outcome in the due-diligence log. " +
			"Escalate to the evaluation committee if the concern cannot be resolved before the award decision.",
	}
}
