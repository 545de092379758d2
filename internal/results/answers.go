package results

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type questionFormAnswers struct {
	XMLName xml.Name         `xml:"QuestionFormAnswers"`
	Answers []questionAnswer `xml:"Answer"`
}

type questionAnswer struct {
	QuestionIdentifier   string   `xml:"QuestionIdentifier"`
	FreeText             *string  `xml:"FreeText"`
	SelectionIdentifiers []string `xml:"SelectionIdentifier"`
	OtherSelectionText   *string  `xml:"OtherSelectionText"`
	UploadedFileKey      *string  `xml:"UploadedFileKey"`
}

// ParseAnswers decodes a QuestionFormAnswers document into ordered answer fragments.
// An empty document yields no answers.
func ParseAnswers(raw string) ([]Answer, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var doc questionFormAnswers
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.CharsetReader = asciiCharsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode question form answers: %w", err)
	}

	out := make([]Answer, 0, len(doc.Answers))
	for _, a := range doc.Answers {
		qid := strings.TrimSpace(a.QuestionIdentifier)
		if qid == "" {
			continue
		}
		switch {
		case a.FreeText != nil:
			out = append(out, Answer{QuestionID: qid, Text: *a.FreeText})
		case len(a.SelectionIdentifiers) > 0 || a.OtherSelectionText != nil:
			for _, sel := range a.SelectionIdentifiers {
				out = append(out, Answer{QuestionID: qid, Text: sel})
			}
			if a.OtherSelectionText != nil {
				out = append(out, Answer{QuestionID: qid, Text: *a.OtherSelectionText})
			}
		case a.UploadedFileKey != nil:
			out = append(out, Answer{QuestionID: qid, Text: *a.UploadedFileKey})
		default:
			out = append(out, Answer{QuestionID: qid})
		}
	}
	return out, nil
}

// MTurk declares answer documents as ASCII, which is a subset of UTF-8.
func asciiCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "ascii", "us-ascii", "utf-8", "utf8":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported answer charset %q", charset)
	}
}
