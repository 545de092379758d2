package results

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mturk-tools/internal/shared/telemetry"
)

// TimeLayout is how timestamps are rendered in results files.
const TimeLayout = time.RFC3339

// Normalizer turns submissions into flat rows. Columns must be scoped to a single batch.
type Normalizer struct {
	// Website is the requester site host used for the viewhit link.
	Website string
	Columns *ColumnSet
}

// NewNormalizer returns a normalizer with a fresh column set.
func NewNormalizer(website string) *Normalizer {
	return &Normalizer{Website: website, Columns: &ColumnSet{}}
}

// Normalize builds the row for sub. It reports false when sub references a HIT missing from tasks.
// CRLF line breaks in any value are stored as LF, which is what ReadTable returns for them.
func (n *Normalizer) Normalize(sub Submission, tasks map[string]Task) (Row, bool) {
	task, ok := tasks[sub.HITID]
	if !ok {
		return nil, false
	}

	row := Row{
		"hitid":                  sub.HITID,
		"hittypeid":              task.TypeID,
		"title":                  task.Title,
		"description":            task.Description,
		"keywords":               task.Keywords,
		"reward":                 FormatReward(task.Reward),
		"creationtime":           formatTime(task.CreationTime),
		"assignments":            strconv.Itoa(task.MaxAssignments),
		"numavailable":           strconv.Itoa(task.NumAvailable),
		"numpending":             strconv.Itoa(task.NumPending),
		"numcomplete":            strconv.Itoa(task.NumCompleted),
		"hitstatus":              task.Status,
		"reviewstatus":           task.ReviewStatus,
		"annotation":             derefString(task.Annotation),
		"assignmentduration":     strconv.FormatInt(task.AssignmentDuration, 10),
		"autoapprovaldelay":      strconv.FormatInt(task.AutoApprovalDelay, 10),
		"hitlifetime":            formatTime(task.Expiration),
		"viewhit":                ManageURL(n.Website, sub.HITID),
		"assignmentid":           sub.ID,
		"workerid":               sub.WorkerID,
		"assignmentstatus":       sub.Status,
		"autoapprovaltime":       formatTimePtr(sub.AutoApprovalTime),
		"assignmentaccepttime":   formatTimePtr(sub.AcceptTime),
		"assignmentsubmittime":   formatTimePtr(sub.SubmitTime),
		"assignmentapprovaltime": formatTimePtr(sub.ApprovalTime),
		"assignmentrejecttime":   formatTimePtr(sub.RejectionTime),
		"deadline":               formatTimePtr(sub.Deadline),
		"feedback":               derefString(sub.Feedback),
		// marks rows to reject when a results file is reviewed by hand
		"reject": "",
	}

	for i, q := range task.Qualifications {
		key := qualificationPrefix + strconv.Itoa(i)
		row[key] = FormatQualification(q)
		n.Columns.Add(key)
	}

	for _, a := range sub.Answers {
		key := answerPrefix + a.QuestionID
		if prev, seen := row[key]; seen {
			row[key] = prev + "," + a.Text
		} else {
			row[key] = a.Text
		}
		n.Columns.Add(key)
	}

	for k, v := range row {
		row[k] = strings.ReplaceAll(v, "\r\n", "\n")
	}
	return row, true
}

// Flatten normalizes every submission in order. Submissions whose HIT is unknown are
// skipped and reported in Batch.Skipped.
func Flatten(subs []Submission, tasks map[string]Task, website string) Batch {
	n := NewNormalizer(website)
	batch := Batch{Rows: make([]Row, 0, len(subs))}
	for _, sub := range subs {
		row, ok := n.Normalize(sub, tasks)
		if !ok {
			telemetry.Warn("results.assignment.skipped", map[string]any{
				"assignment_id": sub.ID,
				"hit_id":        sub.HITID,
				"reason":        "unknown hit",
			})
			batch.Skipped = append(batch.Skipped, Skip{AssignmentID: sub.ID, HITID: sub.HITID, Reason: "unknown hit"})
			continue
		}
		batch.Rows = append(batch.Rows, row)
	}
	batch.Columns = n.Columns.Header()
	return batch
}

// FormatReward renders a reward amount as a dollar string.
func FormatReward(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "$") {
		return amount
	}
	return "$" + amount
}

// FormatQualification renders a requirement as a pipe-delimited key:value list.
func FormatQualification(q QualificationRequirement) string {
	parts := []string{
		"QualificationTypeId:" + q.QualificationTypeID,
		"Comparator:" + q.Comparator,
	}
	if len(q.IntegerValues) > 0 {
		vals := make([]string, len(q.IntegerValues))
		for i, v := range q.IntegerValues {
			vals[i] = strconv.FormatInt(int64(v), 10)
		}
		parts = append(parts, "IntegerValues:"+strings.Join(vals, ","))
	}
	if len(q.LocaleValues) > 0 {
		vals := make([]string, len(q.LocaleValues))
		for i, l := range q.LocaleValues {
			vals[i] = l.Country
			if l.Subdivision != "" {
				vals[i] += "-" + l.Subdivision
			}
		}
		parts = append(parts, "LocaleValues:"+strings.Join(vals, ","))
	}
	if q.RequiredToPreview != nil {
		parts = append(parts, "RequiredToPreview:"+strconv.FormatBool(*q.RequiredToPreview))
	}
	if q.ActionsGuarded != "" {
		parts = append(parts, "ActionsGuarded:"+q.ActionsGuarded)
	}
	return strings.Join(parts, "|")
}

// ManageURL links to the requester page for a HIT.
func ManageURL(website, hitID string) string {
	return fmt.Sprintf("https://%s/mturk/manageHIT?HITId=%s", website, hitID)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
