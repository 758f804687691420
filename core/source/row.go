package source

// Header is a named column of the source.
type Header struct {
	Name  string
	Index int
}

// Location returns the header cell reference, e.g. "G1".
func (h Header) Location() string {
	return ColumnLetter(h.Index) + "1"
}

// Cell is one named value of a row.
type Cell struct {
	Column string
	Index  int
	Value  string
}

// Row is one source line split into its frozen and data zones. Cells keep
// column order; columns with an empty header are not included.
type Row struct {
	// Line is the 1-based line number in the source, the header being line 1.
	Line   int
	Frozen []Cell
	Data   []Cell
}

// Merged overlays the data zone on the frozen zone. A column present in both
// keeps its frozen position and takes the data value.
func (r Row) Merged() []Cell {
	out := make([]Cell, 0, len(r.Frozen)+len(r.Data))
	pos := make(map[string]int, len(r.Frozen)+len(r.Data))
	for _, zone := range [][]Cell{r.Frozen, r.Data} {
		for _, c := range zone {
			if i, ok := pos[c.Column]; ok {
				out[i] = c
				continue
			}
			pos[c.Column] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// FrozenValue returns the frozen-zone value of column.
func (r Row) FrozenValue(column string) (string, bool) {
	for _, c := range r.Frozen {
		if c.Column == column {
			return c.Value, true
		}
	}
	return "", false
}

// Value returns the merged value of column.
func (r Row) Value(column string) (string, bool) {
	var (
		v     string
		found bool
	)
	for _, c := range r.Frozen {
		if c.Column == column {
			v, found = c.Value, true
		}
	}
	for _, c := range r.Data {
		if c.Column == column {
			v, found = c.Value, true
		}
	}
	return v, found
}

// IsBlank reports whether the row carries no non-empty value.
func (r Row) IsBlank() bool {
	for _, zone := range [][]Cell{r.Frozen, r.Data} {
		for _, c := range zone {
			if c.Value != "" {
				return false
			}
		}
	}
	return true
}

// Sheet is a parsed source.
type Sheet struct {
	FrozenHeaders []Header
	DataHeaders   []Header
	Rows          []Row
	// Encoding names the detected input encoding.
	Encoding string
}

// Columns returns the distinct non-empty header names of both zones,
// frozen first.
func (s *Sheet) Columns() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, zone := range [][]Header{s.FrozenHeaders, s.DataHeaders} {
		for _, h := range zone {
			if h.Name == "" {
				continue
			}
			if _, ok := seen[h.Name]; ok {
				continue
			}
			seen[h.Name] = struct{}{}
			out = append(out, h.Name)
		}
	}
	return out
}
