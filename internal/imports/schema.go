package imports

import "strings"

// Schema names the required column labels of an imported workbook. Header
// cells are matched case-insensitively after trimming; extra columns are
// ignored.
type Schema struct {
	ClientName   string
	JobPlace     string
	JobTitle     string
	QuestionText string
}

func DefaultSchema() Schema {
	return Schema{
		ClientName:   "client_name",
		JobPlace:     "job_place",
		JobTitle:     "job_title",
		QuestionText: "question_text",
	}
}

// columns holds the resolved header indexes for one sheet, -1 when absent.
type columns struct {
	clientName   int
	jobPlace     int
	jobTitle     int
	questionText int
}

func (c columns) complete() bool {
	return c.clientName >= 0 && c.jobPlace >= 0 && c.jobTitle >= 0 && c.questionText >= 0
}

// resolve locates the schema's labels in a header row. Resolution happens
// once per sheet; row extraction then only does index lookups.
func (s Schema) resolve(header []string) columns {
	cols := columns{clientName: -1, jobPlace: -1, jobTitle: -1, questionText: -1}

	for i, cell := range header {
		switch label := strings.ToLower(strings.TrimSpace(cell)); label {
		case strings.ToLower(s.ClientName):
			cols.clientName = i
		case strings.ToLower(s.JobPlace):
			cols.jobPlace = i
		case strings.ToLower(s.JobTitle):
			cols.jobTitle = i
		case strings.ToLower(s.QuestionText):
			cols.questionText = i
		}
	}

	return cols
}

// record is a fully populated row ready for insertion.
type record struct {
	clientName   string
	jobPlace     string
	jobTitle     string
	questionText string
}

// extract validates one row against the resolved columns. The second return
// is false when any required field is absent or blank; such rows are skipped,
// not failed.
func (c columns) extract(row []string) (record, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := record{
		clientName:   cell(c.clientName),
		jobPlace:     cell(c.jobPlace),
		jobTitle:     cell(c.jobTitle),
		questionText: cell(c.questionText),
	}

	if rec.clientName == "" || rec.jobPlace == "" || rec.jobTitle == "" || rec.questionText == "" {
		return record{}, false
	}

	return rec, true
}
