package export

// Table defines tabular export content.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}
