package arrowcol

import "frozenarrow/bitmap"

// baseColumn factors the parts every concrete column shares: its metadata
// and its (possibly nil) validity bitmap.
type baseColumn struct {
	meta ColumnMeta
	null *bitmap.NullBitmapView
}

func (b baseColumn) Meta() ColumnMeta                 { return b.meta }
func (b baseColumn) NullBitmap() *bitmap.NullBitmapView { return b.null }

func (baseColumn) Int32Values() []int32     { return nil }
func (baseColumn) Int64Values() []int64     { return nil }
func (baseColumn) Float64Values() []float64 { return nil }
func (baseColumn) BoolValues() []bool       { return nil }
func (baseColumn) StringAt(int) string      { return "" }
func (baseColumn) IsDictionaryEncoded() bool { return false }
func (baseColumn) DictionaryIndices() []int32 { return nil }
func (baseColumn) Dictionary() []string       { return nil }

// Int32Column is a plain, non-encoded int32 column.
type Int32Column struct {
	baseColumn
	values []int32
}

// NewInt32Column builds an Int32Column. null may be nil for non-nullable columns.
func NewInt32Column(name string, values []int32, null *bitmap.NullBitmapView) *Int32Column {
	return &Int32Column{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: Int32, Nullable: null != nil}, null: null},
		values:     values,
	}
}

func (c *Int32Column) Len() int           { return len(c.values) }
func (c *Int32Column) Int32Values() []int32 { return c.values }

// Int64Column is a plain, non-encoded int64 column.
type Int64Column struct {
	baseColumn
	values []int64
}

// NewInt64Column builds an Int64Column.
func NewInt64Column(name string, values []int64, null *bitmap.NullBitmapView) *Int64Column {
	return &Int64Column{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: Int64, Nullable: null != nil}, null: null},
		values:     values,
	}
}

func (c *Int64Column) Len() int           { return len(c.values) }
func (c *Int64Column) Int64Values() []int64 { return c.values }

// Float64Column is a plain, non-encoded float64 column.
type Float64Column struct {
	baseColumn
	values []float64
}

// NewFloat64Column builds a Float64Column.
func NewFloat64Column(name string, values []float64, null *bitmap.NullBitmapView) *Float64Column {
	return &Float64Column{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: Float64, Nullable: null != nil}, null: null},
		values:     values,
	}
}

func (c *Float64Column) Len() int             { return len(c.values) }
func (c *Float64Column) Float64Values() []float64 { return c.values }

// DecimalColumn stores fixed-point decimals as scaled int64s (value *
// 10^scale), the usual columnar representation for a DECIMAL(p,s) type.
type DecimalColumn struct {
	baseColumn
	scaled []int64
	scale  int32
}

// NewDecimalColumn builds a DecimalColumn of the given scale.
func NewDecimalColumn(name string, scaled []int64, scale int32, null *bitmap.NullBitmapView) *DecimalColumn {
	return &DecimalColumn{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: Decimal, Nullable: null != nil}, null: null},
		scaled:     scaled,
		scale:      scale,
	}
}

func (c *DecimalColumn) Len() int             { return len(c.scaled) }
func (c *DecimalColumn) Int64Values() []int64 { return c.scaled }
func (c *DecimalColumn) Scale() int32         { return c.scale }

// BoolColumn is a plain bool-per-row column.
type BoolColumn struct {
	baseColumn
	values []bool
}

// NewBoolColumn builds a BoolColumn.
func NewBoolColumn(name string, values []bool, null *bitmap.NullBitmapView) *BoolColumn {
	return &BoolColumn{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: Bool, Nullable: null != nil}, null: null},
		values:     values,
	}
}

func (c *BoolColumn) Len() int         { return len(c.values) }
func (c *BoolColumn) BoolValues() []bool { return c.values }

// StringColumn is a plain (non-dictionary) string column.
type StringColumn struct {
	baseColumn
	values []string
}

// NewStringColumn builds a plain StringColumn.
func NewStringColumn(name string, values []string, null *bitmap.NullBitmapView) *StringColumn {
	return &StringColumn{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: String, Nullable: null != nil}, null: null},
		values:     values,
	}
}

func (c *StringColumn) Len() int               { return len(c.values) }
func (c *StringColumn) StringAt(row int) string { return c.values[row] }

// DictStringColumn is a dictionary-encoded string column: each row stores an
// int32 index into a shared dictionary of distinct values, a layout the
// string-equality predicate's fast path can exploit by comparing indices
// directly instead of the strings they resolve to.
type DictStringColumn struct {
	baseColumn
	indices    []int32
	dictionary []string
}

// NewDictStringColumn builds a dictionary-encoded string column.
func NewDictStringColumn(name string, indices []int32, dictionary []string, null *bitmap.NullBitmapView) *DictStringColumn {
	return &DictStringColumn{
		baseColumn: baseColumn{meta: ColumnMeta{Name: name, Type: String, Nullable: null != nil}, null: null},
		indices:    indices,
		dictionary: dictionary,
	}
}

func (c *DictStringColumn) Len() int { return len(c.indices) }

func (c *DictStringColumn) StringAt(row int) string {
	idx := c.indices[row]
	if int(idx) < 0 || int(idx) >= len(c.dictionary) {
		return ""
	}
	return c.dictionary[idx]
}

func (c *DictStringColumn) IsDictionaryEncoded() bool   { return true }
func (c *DictStringColumn) DictionaryIndices() []int32 { return c.indices }
func (c *DictStringColumn) Dictionary() []string       { return c.dictionary }
