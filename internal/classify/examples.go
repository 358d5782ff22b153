package classify

// categoryExamples holds 3-4 canonical example sentences per category,
// used to embed and compare against when pattern-based scoring is
// inconclusive (spec.md §4.4 semantic fallback). Carried from
// clause_segmenter.py's category_examples table.
var categoryExamples = map[Category][]string{
	CategoryTermination: {
		"Either party may terminate this agreement upon thirty days written notice.",
		"This agreement shall expire on the anniversary of the effective date.",
		"Termination for cause is permitted upon material breach uncured after notice.",
	},
	CategoryLiability: {
		"In no event shall either party be liable for consequential or incidental damages.",
		"Total liability under this agreement shall not exceed the fees paid in the preceding year.",
		"Neither party is responsible for indirect or punitive damages arising from this agreement.",
	},
	CategoryIndemnity: {
		"Company shall indemnify and hold Customer harmless against third-party claims.",
		"Each party agrees to defend the other against claims arising from its own negligence.",
		"The vendor will indemnify the client for losses caused by a breach of this agreement.",
	},
	CategoryConfidentiality: {
		"Each party agrees to keep the other's confidential information strictly confidential.",
		"Proprietary information disclosed under this agreement shall not be shared with third parties.",
		"The recipient shall use the same degree of care to protect trade secrets as its own.",
	},
	CategoryPayment: {
		"Customer shall pay all invoices within thirty days of receipt.",
		"Fees are due upon execution of this agreement and are non-refundable.",
		"Late payments accrue interest at one and a half percent per month.",
	},
	CategoryIPOwnership: {
		"All intellectual property created under this agreement shall belong to Company.",
		"Deliverables are works made for hire and title vests exclusively in Client.",
		"Each party retains ownership of its pre-existing intellectual property.",
	},
	CategoryDisputeResolution: {
		"Any dispute arising under this agreement shall be resolved through binding arbitration.",
		"The parties agree to mediate disputes prior to pursuing litigation.",
		"Disputes shall be subject to the exclusive jurisdiction of the state courts.",
	},
	CategoryGoverningLaw: {
		"This agreement shall be governed by and construed in accordance with the laws of Delaware.",
		"The laws of the state, without regard to conflict of law principles, govern this agreement.",
	},
	CategoryAssignment: {
		"Neither party may assign this agreement without the prior written consent of the other.",
		"This agreement binds and benefits the parties' successors and permitted assigns.",
	},
	CategoryModification: {
		"This agreement may be amended only by a written instrument signed by both parties.",
		"No modification of this agreement is effective unless in writing and signed by both parties.",
	},
	CategoryWarranties: {
		"Company represents and warrants that the services will be performed in a professional manner.",
		"The software is provided as-is without any warranty of merchantability or fitness for purpose.",
	},
	CategoryForceMajeure: {
		"Neither party shall be liable for delays caused by events beyond its reasonable control.",
		"Force majeure events include acts of God, war, and government action.",
	},
	CategoryDefinitions: {
		"\"Confidential Information\" means any non-public information disclosed by either party.",
		"As used in this agreement, the following terms shall have the meanings set forth below.",
	},
}
