package types

type ConversionResult struct {
	RunID          string
	InputFile      string
	OutputFile     string
	RuleSet        string
	ColumnsWritten []string
	FailedColumns  []string
	RowsProcessed  int
	Header         []string
	Preview        [][]string
}
