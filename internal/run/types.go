package run

// Artifact filenames produced by the generation and review collaborators
// inside each run directory.
const (
	ManifestName   = "run_manifest.json"
	DocName        = "design_doc.md"
	ReviewName     = "review_report.json"
	InputsDirName  = "inputs"
	SectionsDir    = "sections"
	PrevDocName    = "previous_design_doc.md"
	PrevReviewName = "previous_review_report.json"
)

// Review status values. PASS and FAIL come from the reviewer; StatusMissing
// marks a report that exists on disk but is not readable as a JSON object.
// An empty status means no report was found at all.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusMissing = "MISSING"
)

// Record is the fully loaded state of one artifact-producing attempt.
// The loader populates everything except the lineage fields, which the
// lineage package fills in afterwards. A Record is never mutated once the
// full evaluation pass has run.
type Record struct {
	RunID     string
	RunDir    string
	OutputDir string
	Timestamp string
	Manifest  map[string]interface{}

	QAStatus        string
	QAIssueCount    *int // nil when the review report is absent or unreadable
	QAIssueSections map[string]bool

	DesignDocExists bool
	DesignDocText   string

	// Content hashes; empty string means the file was absent.
	DesignDocHash        string
	ReviewReportHash     string
	PrevDesignDocHash    string
	PrevReviewReportHash string

	RequiredSectionsTotal         int
	RequiredSectionsCompleted     int
	RequiredSectionsCompletionPct float64
	SectionArtifactsTotal         int
	SectionArtifactsPresent       int
	SectionArtifactsValid         int
	SectionArtifactsCompletionPct float64

	// Computed lineage, assigned after loading.
	ParentRunID   string // empty for a lineage root
	SequenceID    string
	SequenceIndex int // 1-based position within the sequence
}

// Rules defines what counts as a complete document: the required top-level
// headings of the design doc and the per-file headings each section artifact
// must contain.
type Rules struct {
	RequiredSections []string
	SectionArtifacts map[string][]string
}

// DefaultRules returns the stock document rules.
func DefaultRules() Rules {
	return Rules{
		RequiredSections: []string{
			"Problem Statement",
			"Goals",
			"Non-Goals",
			"Context & Constraints",
			"Architecture Overview",
			"Data Design",
			"API / Interface Contracts",
			"Non-Functional Requirements",
			"Risks & Mitigations",
			"Rollout Plan",
			"Test Strategy",
			"Decision Log",
			"Prior QA Report Review",
			"Assumptions",
		},
		SectionArtifacts: map[string][]string{
			"requirements.md": {"Problem Statement", "Goals", "Non-Goals", "Assumptions"},
			"architecture.md": {"Architecture Overview", "Components", "Trade-offs", "Diagram", "Assumptions"},
			"data_api.md": {
				"Data Design",
				"Entities",
				"Data Flows",
				"Storage/Retention",
				"API / Interface Contracts",
				"Assumptions",
			},
			"security.md": {"Risks & Mitigations", "Security Controls", "Assumptions"},
			"nfrs_ops.md": {"Non-Functional Requirements", "Observability", "Ops Runbooks", "Assumptions"},
		},
	}
}
