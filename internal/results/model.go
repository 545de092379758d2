package results

import "time"

// Locale is a country with an optional subdivision, as used by locale qualification requirements.
type Locale struct {
	Country     string
	Subdivision string
}

// QualificationRequirement is one eligibility rule attached to a HIT.
type QualificationRequirement struct {
	QualificationTypeID string
	Comparator          string
	IntegerValues       []int32
	LocaleValues        []Locale
	RequiredToPreview   *bool
	ActionsGuarded      string
}

// Task is a published HIT as reported by the requester API.
type Task struct {
	ID                 string
	TypeID             string
	GroupID            string
	Title              string
	Description        string
	Keywords           string
	Reward             string
	CreationTime       time.Time
	MaxAssignments     int
	NumAvailable       int
	NumPending         int
	NumCompleted       int
	Status             string
	ReviewStatus       string
	AssignmentDuration int64
	AutoApprovalDelay  int64
	Expiration         time.Time
	Annotation         *string
	Qualifications     []QualificationRequirement
}

// Answer is one question-identifier/answer-text fragment from a submission.
type Answer struct {
	QuestionID string
	Text       string
}

// Submission is one worker's assignment on a HIT. Pointer fields are absent
// for some assignment statuses and render as the empty string.
type Submission struct {
	ID               string
	HITID            string
	Status           string
	WorkerID         string
	AutoApprovalTime *time.Time
	AcceptTime       *time.Time
	SubmitTime       *time.Time
	ApprovalTime     *time.Time
	RejectionTime    *time.Time
	Deadline         *time.Time
	Feedback         *string
	Answers          []Answer
}

// Row is one flattened output line keyed by column name.
type Row map[string]string

// Skip records a submission that could not be flattened.
type Skip struct {
	AssignmentID string
	HITID        string
	Reason       string
}

// Batch is the outcome of flattening one set of submissions.
type Batch struct {
	Columns []string
	Rows    []Row
	Skipped []Skip
}
