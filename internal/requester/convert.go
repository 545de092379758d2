package requester

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"

	"mturk-tools/internal/results"
)

func taskFromHIT(h types.HIT) results.Task {
	return results.Task{
		ID:                 aws.ToString(h.HITId),
		TypeID:             aws.ToString(h.HITTypeId),
		GroupID:            aws.ToString(h.HITGroupId),
		Title:              aws.ToString(h.Title),
		Description:        aws.ToString(h.Description),
		Keywords:           aws.ToString(h.Keywords),
		Reward:             aws.ToString(h.Reward),
		CreationTime:       aws.ToTime(h.CreationTime),
		MaxAssignments:     int(aws.ToInt32(h.MaxAssignments)),
		NumAvailable:       int(aws.ToInt32(h.NumberOfAssignmentsAvailable)),
		NumPending:         int(aws.ToInt32(h.NumberOfAssignmentsPending)),
		NumCompleted:       int(aws.ToInt32(h.NumberOfAssignmentsCompleted)),
		Status:             string(h.HITStatus),
		ReviewStatus:       string(h.HITReviewStatus),
		AssignmentDuration: aws.ToInt64(h.AssignmentDurationInSeconds),
		AutoApprovalDelay:  aws.ToInt64(h.AutoApprovalDelayInSeconds),
		Expiration:         aws.ToTime(h.Expiration),
		Annotation:         h.RequesterAnnotation,
		Qualifications:     requirementsFromSDK(h.QualificationRequirements),
	}
}

func requirementsFromSDK(in []types.QualificationRequirement) []results.QualificationRequirement {
	if len(in) == 0 {
		return nil
	}
	out := make([]results.QualificationRequirement, len(in))
	for i, q := range in {
		req := results.QualificationRequirement{
			QualificationTypeID: aws.ToString(q.QualificationTypeId),
			Comparator:          string(q.Comparator),
			IntegerValues:       q.IntegerValues,
			RequiredToPreview:   q.RequiredToPreview,
			ActionsGuarded:      string(q.ActionsGuarded),
		}
		for _, l := range q.LocaleValues {
			req.LocaleValues = append(req.LocaleValues, results.Locale{
				Country:     aws.ToString(l.Country),
				Subdivision: aws.ToString(l.Subdivision),
			})
		}
		out[i] = req
	}
	return out
}

func requirementsToSDK(in []results.QualificationRequirement) []types.QualificationRequirement {
	out := make([]types.QualificationRequirement, len(in))
	for i, q := range in {
		req := types.QualificationRequirement{
			QualificationTypeId: aws.String(q.QualificationTypeID),
			Comparator:          types.Comparator(q.Comparator),
			IntegerValues:       q.IntegerValues,
			RequiredToPreview:   q.RequiredToPreview,
		}
		if q.ActionsGuarded != "" {
			req.ActionsGuarded = types.HITAccessActions(q.ActionsGuarded)
		}
		for _, l := range q.LocaleValues {
			loc := types.Locale{Country: aws.String(l.Country)}
			if l.Subdivision != "" {
				loc.Subdivision = aws.String(l.Subdivision)
			}
			req.LocaleValues = append(req.LocaleValues, loc)
		}
		out[i] = req
	}
	return out
}

func submissionFromAssignment(a types.Assignment) (results.Submission, error) {
	answers, err := results.ParseAnswers(aws.ToString(a.Answer))
	if err != nil {
		return results.Submission{}, fmt.Errorf("assignment %s: %w", aws.ToString(a.AssignmentId), err)
	}
	return results.Submission{
		ID:               aws.ToString(a.AssignmentId),
		HITID:            aws.ToString(a.HITId),
		Status:           string(a.AssignmentStatus),
		WorkerID:         aws.ToString(a.WorkerId),
		AutoApprovalTime: a.AutoApprovalTime,
		AcceptTime:       a.AcceptTime,
		SubmitTime:       a.SubmitTime,
		ApprovalTime:     a.ApprovalTime,
		RejectionTime:    a.RejectionTime,
		Deadline:         a.Deadline,
		Feedback:         a.RequesterFeedback,
		Answers:          answers,
	}, nil
}

var durationUnits = []struct {
	name    string
	seconds int64
}{
	{name: "d", seconds: 24 * 60 * 60},
	{name: "h", seconds: 60 * 60},
	{name: "min", seconds: 60},
	{name: "s", seconds: 1},
}

// DisplayDuration renders seconds in the largest unit that divides it evenly.
func DisplayDuration(seconds int64) string {
	for _, u := range durationUnits {
		if seconds%u.seconds == 0 {
			return strconv.FormatInt(seconds/u.seconds, 10) + " " + u.name
		}
	}
	return strconv.FormatInt(seconds, 10) + " s"
}

func displayTime(t time.Time) string {
	return t.Local().Format("2 Jan 2006, 3:04 pm")
}

// Summary formats a HIT for the console. Verbose adds description and keywords.
func Summary(t results.Task, sandbox, verbose bool, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s, %s)\n", t.Title, results.FormatReward(t.Reward), DisplayDuration(t.AssignmentDuration), t.Status)
	fmt.Fprintf(&b, "HIT ID: %s\n", t.ID)
	fmt.Fprintf(&b, "Type ID: %s\n", t.TypeID)
	fmt.Fprintf(&b, "Group ID: %s\n", t.GroupID)
	fmt.Fprintf(&b, "Preview: %s\n", PreviewURL(sandbox, t.TypeID))
	expiry := "Expires " + displayTime(t.Expiration)
	if !t.Expiration.After(now) {
		expiry = "Expired"
	}
	fmt.Fprintf(&b, "Created %s   %s\n", displayTime(t.CreationTime), expiry)
	reviewable := t.MaxAssignments - (t.NumAvailable + t.NumPending + t.NumCompleted)
	fmt.Fprintf(&b, "Assignments: %d -- %d avail, %d pending, %d reviewable, %d reviewed\n",
		t.MaxAssignments, t.NumAvailable, t.NumPending, reviewable, t.NumCompleted)
	if verbose {
		fmt.Fprintf(&b, "\nDescription: %s\n", t.Description)
		fmt.Fprintf(&b, "\nKeywords: %s\n", t.Keywords)
	}
	return b.String()
}
