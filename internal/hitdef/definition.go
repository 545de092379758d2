package hitdef

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mturk-tools/internal/results"
)

const (
	defaultAssignmentDuration = 60 * time.Minute
	defaultLifetime           = 48 * time.Hour
	defaultAutoApprovalDelay  = 14 * 24 * time.Hour
)

// Definition is a HIT configuration file.
type Definition struct {
	Title              *string        `yaml:"title"`
	Description        *string        `yaml:"description"`
	Keywords           *Keywords      `yaml:"keywords"`
	Reward             *float64       `yaml:"reward"`
	Assignments        *int32         `yaml:"assignments"`
	AssignmentDuration *int64         `yaml:"assignmentduration"`
	Lifetime           *int64         `yaml:"hitlifetime"`
	AutoApprovalDelay  *int64         `yaml:"autoapprovaldelay"`
	Annotation         string         `yaml:"annotation"`
	Question           *Question      `yaml:"question"`
	Qualifications     Qualifications `yaml:"qualifications"`
	Notification       *Notification  `yaml:"notification"`
}

// Question describes an ExternalQuestion. URL may contain {name} placeholders
// filled from each Input row, producing one HIT per row.
type Question struct {
	URL    string           `yaml:"url"`
	Height int              `yaml:"height"`
	Input  []map[string]any `yaml:"input"`
}

// Qualifications groups system and requester-defined requirements.
type Qualifications struct {
	Builtin []BuiltinQualification `yaml:"builtin"`
	Custom  []CustomQualification  `yaml:"custom"`
}

// BuiltinQualification references a system qualification by name.
type BuiltinQualification struct {
	Qualification string  `yaml:"qualification"`
	Comparator    string  `yaml:"comparator"`
	Value         int32   `yaml:"value"`
	Locale        Locales `yaml:"locale"`
	Private       bool    `yaml:"private"`
}

// CustomQualification references a requester qualification type id.
type CustomQualification struct {
	Qualification string    `yaml:"qualification"`
	Comparator    string    `yaml:"comparator"`
	Value         IntValues `yaml:"value"`
	Private       bool      `yaml:"private"`
}

// Notification subscribes the created HIT type to an SQS queue.
type Notification struct {
	QueueURL string   `yaml:"queue_url"`
	Events   []string `yaml:"events"`
}

// Parse decodes and validates a HIT definition. Every missing required key is reported at once.
func Parse(r io.Reader) (*Definition, error) {
	var def Definition
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		if err == io.EOF {
			return nil, &results.MissingFieldsError{Source: "hit definition", Fields: requiredKeys}
		}
		return nil, fmt.Errorf("decode hit definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

var requiredKeys = []string{"description", "title", "assignments", "keywords", "reward", "question"}

// Validate checks required keys and qualification names.
func (d *Definition) Validate() error {
	present := map[string]bool{
		"description": d.Description != nil,
		"title":       d.Title != nil,
		"assignments": d.Assignments != nil,
		"keywords":    d.Keywords != nil,
		"reward":      d.Reward != nil,
		"question":    d.Question != nil,
	}
	var missing []string
	for _, key := range requiredKeys {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	if d.Question != nil {
		if strings.TrimSpace(d.Question.URL) == "" {
			missing = append(missing, "question.url")
		}
		if d.Question.Height <= 0 {
			missing = append(missing, "question.height")
		}
	}
	if len(missing) > 0 {
		return &results.MissingFieldsError{Source: "hit definition", Fields: missing}
	}

	for _, b := range d.Qualifications.Builtin {
		if _, ok := BuiltinRequirements[b.Qualification]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQualification, b.Qualification)
		}
	}
	if d.Notification != nil && strings.TrimSpace(d.Notification.QueueURL) == "" {
		return &results.MissingFieldsError{Source: "hit definition", Fields: []string{"notification.queue_url"}}
	}
	return nil
}

// SuccessPath returns where the batch descriptor for configPath is written:
// "hits.yaml" becomes "hits.success.yaml".
func SuccessPath(configPath string) string {
	ext := filepath.Ext(configPath)
	if ext == "" {
		return configPath + ".success"
	}
	return strings.TrimSuffix(configPath, ext) + ".success" + ext
}

func durationOr(seconds *int64, def time.Duration) time.Duration {
	if seconds == nil {
		return def
	}
	return time.Duration(*seconds) * time.Second
}
