package results

import "sort"

// FixedColumns is the leading column order of every results file.
var FixedColumns = []string{
	"hitid", "hittypeid", "title", "description", "keywords", "reward",
	"creationtime", "assignments", "numavailable", "numpending", "numcomplete",
	"hitstatus", "reviewstatus", "annotation", "assignmentduration",
	"autoapprovaldelay", "hitlifetime", "viewhit", "assignmentid", "workerid",
	"assignmentstatus", "autoapprovaltime", "assignmentaccepttime",
	"assignmentsubmittime", "assignmentapprovaltime", "assignmentrejecttime",
	"deadline", "feedback", "reject",
}

const (
	answerPrefix        = "Answer."
	qualificationPrefix = "Qualification."
)

// ColumnSet collects dynamically discovered column names for one batch.
// The zero value is ready to use.
type ColumnSet struct {
	names map[string]struct{}
}

// Add registers a column name.
func (s *ColumnSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[name] = struct{}{}
}

// Has reports whether name was registered.
func (s *ColumnSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of registered names.
func (s *ColumnSet) Len() int {
	return len(s.names)
}

// Sorted returns the registered names in lexicographic order.
func (s *ColumnSet) Sorted() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Header returns the fixed columns followed by the sorted dynamic ones.
func (s *ColumnSet) Header() []string {
	dynamic := s.Sorted()
	out := make([]string, 0, len(FixedColumns)+len(dynamic))
	out = append(out, FixedColumns...)
	return append(out, dynamic...)
}
