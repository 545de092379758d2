package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TaskListColumns is the header of the account-wide HIT listing.
var TaskListColumns = []string{
	"HITTypeId", "HITGroupId", "HITId", "HITStatus", "HITReviewStatus",
	"Title", "Description", "Keywords", "Amount", "Reward", "FormattedPrice",
	"CurrencyCode", "CreationTime", "AutoApprovalDelayInSeconds",
	"AssignmentDurationInSeconds", "Expiration", "expired", "NumberOfAssignmentsAvailable",
	"NumberOfAssignmentsCompleted", "NumberOfAssignmentsPending",
	"MaxAssignments", "QualificationTypeId", "QualificationRequirement",
	"RequiredToPreview", "Comparator", "IntegerValue", "Country", "LocaleValue",
}

// TaskListName is the file name used for a listing taken at t.
func TaskListName(t time.Time) string {
	return "all_hits-" + t.UTC().Format("20060102T150405Z") + ".csv"
}

// WriteTaskList writes tasks as comma-separated values. Requirement fields
// hold one entry per requirement joined with ";".
func WriteTaskList(w io.Writer, tasks []Task, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TaskListColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, t := range tasks {
		if err := cw.Write(taskListRecord(t, now)); err != nil {
			return fmt.Errorf("write hit %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func taskListRecord(t Task, now time.Time) []string {
	var typeIDs, reqs, preview, comparators, ints, countries, locales []string
	for _, q := range t.Qualifications {
		typeIDs = append(typeIDs, q.QualificationTypeID)
		reqs = append(reqs, FormatQualification(q))
		comparators = append(comparators, q.Comparator)
		if q.RequiredToPreview != nil {
			preview = append(preview, strconv.FormatBool(*q.RequiredToPreview))
		} else {
			preview = append(preview, "")
		}
		vals := make([]string, len(q.IntegerValues))
		for i, v := range q.IntegerValues {
			vals[i] = strconv.FormatInt(int64(v), 10)
		}
		ints = append(ints, strings.Join(vals, ","))
		var cs, ls []string
		for _, l := range q.LocaleValues {
			cs = append(cs, l.Country)
			if l.Subdivision != "" {
				ls = append(ls, l.Country+"-"+l.Subdivision)
			} else {
				ls = append(ls, l.Country)
			}
		}
		countries = append(countries, strings.Join(cs, ","))
		locales = append(locales, strings.Join(ls, ","))
	}

	return []string{
		t.TypeID, t.GroupID, t.ID, t.Status, t.ReviewStatus,
		t.Title, t.Description, t.Keywords, t.Reward, t.Reward, FormatReward(t.Reward),
		"USD", formatTime(t.CreationTime), strconv.FormatInt(t.AutoApprovalDelay, 10),
		strconv.FormatInt(t.AssignmentDuration, 10), formatTime(t.Expiration),
		strconv.FormatBool(!t.Expiration.After(now)), strconv.Itoa(t.NumAvailable),
		strconv.Itoa(t.NumCompleted), strconv.Itoa(t.NumPending),
		strconv.Itoa(t.MaxAssignments), strings.Join(typeIDs, ";"), strings.Join(reqs, ";"),
		strings.Join(preview, ";"), strings.Join(comparators, ";"), strings.Join(ints, ";"),
		strings.Join(countries, ";"), strings.Join(locales, ";"),
	}
}
