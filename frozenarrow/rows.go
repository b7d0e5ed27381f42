package frozenarrow

import (
	"frozenarrow/farrowerr"
	"frozenarrow/translate"
)

// Rows materializes res into a dyn-typed row sequence: one
// map[string]interface{} per output row, keyed by output column name.
// Only TerminalEnumerate results carry rows; other terminals report an
// error.
func (c *Collection) Rows(res *Result) ([]map[string]interface{}, error) {
	if res == nil {
		return nil, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: nil result")
	}
	if res.Terminal != translate.TerminalEnumerate {
		return nil, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: Rows requires a row-sequence (Enumerate) result")
	}
	if res.IsGrouped() {
		return c.groupRows(res), nil
	}
	return c.plainRows(res), nil
}

func (c *Collection) plainRows(res *Result) []map[string]interface{} {
	columns := res.Fields
	if len(columns) == 0 {
		columns = allColumns(c.schema)
	}
	out := make([]map[string]interface{}, len(res.RowIndices))
	for i, row := range res.RowIndices {
		m := make(map[string]interface{}, len(columns))
		for _, f := range columns {
			idx, ok := c.schema.IndexOf(f.SourceColumn)
			if !ok {
				continue
			}
			meta := c.schema.Column(idx)
			m[f.OutputName] = boxColumnValue(c.batch.Column(idx), meta, row)
		}
		out[i] = m
	}
	return out
}

func (c *Collection) groupRows(res *Result) []map[string]interface{} {
	out := make([]map[string]interface{}, len(res.Groups))
	for i, g := range res.Groups {
		m := make(map[string]interface{}, 1+len(res.Aggregates))
		m[res.GroupKeyColumn] = g.Key
		for j, d := range res.Aggregates {
			agg := g.Aggregates[j]
			if agg.IsFloat {
				m[d.OutputName] = agg.Float64Value
			} else {
				m[d.OutputName] = agg.Int64Value
			}
		}
		out[i] = m
	}
	return out
}
