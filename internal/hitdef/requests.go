package hitdef

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"time"

	"mturk-tools/internal/results"
)

// ErrUnknownQualification is returned for a builtin qualification name missing from BuiltinRequirements.
var ErrUnknownQualification = errors.New("unknown builtin qualification")

// BuiltinRequirements maps system qualification names to their type ids.
var BuiltinRequirements = map[string]string{
	"AdultRequirement":                       "00000000000000000060",
	"LocaleRequirement":                      "00000000000000000071",
	"NumberHitsApprovedRequirement":          "00000000000000000040",
	"PercentAssignmentsAbandonedRequirement": "00000000000000000070",
	"PercentAssignmentsApprovedRequirement":  "000000000000000000L0",
	"PercentAssignmentsRejectedRequirement":  "000000000000000000S0",
	"PercentAssignmentsReturnedRequirement":  "000000000000000000E0",
	"PercentAssignmentsSubmittedRequirement": "00000000000000000000",
}

const externalQuestionNS = "http://mechanicalturk.amazonaws.com/AWSMechanicalTurkDataSchemas/2006-07-14/ExternalQuestion.xsd"

// Request is everything needed for one CreateHIT call.
type Request struct {
	Title              string
	Description        string
	Keywords           string
	Reward             string
	Question           string
	Annotation         string
	MaxAssignments     int32
	AssignmentDuration time.Duration
	Lifetime           time.Duration
	AutoApprovalDelay  time.Duration
	Qualifications     []results.QualificationRequirement
}

// Requests expands the definition into one request per question URL.
func (d *Definition) Requests() ([]Request, error) {
	urls, err := d.Question.URLs()
	if err != nil {
		return nil, err
	}
	quals := d.Qualifications.Requirements()

	out := make([]Request, 0, len(urls))
	for _, url := range urls {
		question, err := ExternalQuestion(url, d.Question.Height)
		if err != nil {
			return nil, err
		}
		out = append(out, Request{
			Title:              *d.Title,
			Description:        *d.Description,
			Keywords:           string(*d.Keywords),
			Reward:             fmt.Sprintf("%.2f", *d.Reward),
			Question:           question,
			Annotation:         d.Annotation,
			MaxAssignments:     *d.Assignments,
			AssignmentDuration: durationOr(d.AssignmentDuration, defaultAssignmentDuration),
			Lifetime:           durationOr(d.Lifetime, defaultLifetime),
			AutoApprovalDelay:  durationOr(d.AutoApprovalDelay, defaultAutoApprovalDelay),
			Qualifications:     quals,
		})
	}
	return out, nil
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// URLs fills the URL template once per input row, or returns the URL as-is without input.
func (q *Question) URLs() ([]string, error) {
	if len(q.Input) == 0 {
		return []string{q.URL}, nil
	}
	out := make([]string, 0, len(q.Input))
	for i, row := range q.Input {
		var missing error
		url := placeholder.ReplaceAllStringFunc(q.URL, func(m string) string {
			key := m[1 : len(m)-1]
			val, ok := row[key]
			if !ok {
				missing = fmt.Errorf("question input row %d has no value for {%s}", i, key)
				return m
			}
			return fmt.Sprint(val)
		})
		if missing != nil {
			return nil, missing
		}
		out = append(out, url)
	}
	return out, nil
}

type externalQuestion struct {
	XMLName     xml.Name `xml:"ExternalQuestion"`
	Xmlns       string   `xml:"xmlns,attr"`
	ExternalURL string   `xml:"ExternalURL"`
	FrameHeight int      `xml:"FrameHeight"`
}

// ExternalQuestion renders the ExternalQuestion XML for url.
func ExternalQuestion(url string, height int) (string, error) {
	data, err := xml.Marshal(externalQuestion{Xmlns: externalQuestionNS, ExternalURL: url, FrameHeight: height})
	if err != nil {
		return "", fmt.Errorf("encode external question: %w", err)
	}
	return string(data), nil
}

// Requirements converts builtin then custom qualifications, in file order.
func (q Qualifications) Requirements() []results.QualificationRequirement {
	out := make([]results.QualificationRequirement, 0, len(q.Builtin)+len(q.Custom))
	for _, b := range q.Builtin {
		private := b.Private
		req := results.QualificationRequirement{
			QualificationTypeID: BuiltinRequirements[b.Qualification],
			Comparator:          b.Comparator,
			RequiredToPreview:   &private,
		}
		switch b.Qualification {
		case "AdultRequirement":
			req.IntegerValues = []int32{1}
		case "LocaleRequirement":
			req.LocaleValues = []results.Locale(b.Locale)
		default:
			req.IntegerValues = []int32{b.Value}
		}
		out = append(out, req)
	}
	for _, c := range q.Custom {
		private := c.Private
		req := results.QualificationRequirement{
			QualificationTypeID: c.Qualification,
			Comparator:          c.Comparator,
			RequiredToPreview:   &private,
		}
		if c.Comparator != "Exists" && c.Comparator != "DoesNotExist" {
			req.IntegerValues = []int32(c.Value)
		}
		out = append(out, req)
	}
	return out
}
