package overview

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// bucketCol is the bucket-index column name in the parquet artifact.
const bucketCol = "bucket"

// writeParquet persists a table as a snappy-compressed parquet file.
// Column order: time column, bucket index, then data columns. Absent
// aggregate values are stored as NaN, not parquet nulls.
func writeParquet(path string, t *Table) error {
	fields := make([]arrow.Field, 0, 2+len(t.ColumnNames))
	if t.IsDatetime {
		fields = append(fields, arrow.Field{Name: t.TimeCol, Type: arrow.FixedWidthTypes.Timestamp_ns})
	} else {
		fields = append(fields, arrow.Field{Name: t.TimeCol, Type: arrow.PrimitiveTypes.Float64})
	}
	fields = append(fields, arrow.Field{Name: bucketCol, Type: arrow.PrimitiveTypes.Int64})
	for _, name := range t.ColumnNames {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	if t.IsDatetime {
		tb := b.Field(0).(*array.TimestampBuilder)
		for _, s := range t.Times {
			tb.Append(arrow.Timestamp(int64(math.Round(s * 1e9))))
		}
	} else {
		b.Field(0).(*array.Float64Builder).AppendValues(t.Times, nil)
	}
	b.Field(1).(*array.Int64Builder).AppendValues(t.Buckets, nil)
	for i, name := range t.ColumnNames {
		b.Field(2 + i).(*array.Float64Builder).AppendValues(t.Columns[name], nil)
	}

	rec := b.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet %s: %w", path, err)
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("open parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		_ = f.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	// w.Close closes the underlying file; closing f again would fail
	// with "file already closed".
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// readParquet reads a parquet overview artifact back into a Table.
func readParquet(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	if schema.NumFields() < 2 {
		return nil, fmt.Errorf("parquet %s: unexpected schema with %d fields", path, schema.NumFields())
	}

	t := &Table{
		TimeCol: schema.Field(0).Name,
		Columns: make(map[string][]float64, schema.NumFields()-2),
	}

	timeField := schema.Field(0)
	if _, ok := timeField.Type.(*arrow.TimestampType); ok {
		t.IsDatetime = true
	}

	rows := int(tbl.NumRows())
	t.Times = make([]float64, 0, rows)
	for _, chunk := range tbl.Column(0).Data().Chunks() {
		switch col := chunk.(type) {
		case *array.Timestamp:
			unit := col.DataType().(*arrow.TimestampType).Unit
			for i := 0; i < col.Len(); i++ {
				t.Times = append(t.Times, timestampSeconds(col.Value(i), unit))
			}
		case *array.Float64:
			t.Times = append(t.Times, col.Float64Values()...)
		default:
			return nil, fmt.Errorf("parquet %s: unexpected time column type %s", path, chunk.DataType())
		}
	}

	t.Buckets = make([]int64, 0, rows)
	for _, chunk := range tbl.Column(1).Data().Chunks() {
		col, ok := chunk.(*array.Int64)
		if !ok {
			return nil, fmt.Errorf("parquet %s: unexpected bucket column type %s", path, chunk.DataType())
		}
		t.Buckets = append(t.Buckets, col.Int64Values()...)
	}

	for fi := 2; fi < schema.NumFields(); fi++ {
		name := schema.Field(fi).Name
		vals := make([]float64, 0, rows)
		for _, chunk := range tbl.Column(fi).Data().Chunks() {
			col, ok := chunk.(*array.Float64)
			if !ok {
				return nil, fmt.Errorf("parquet %s: unexpected data column type %s", path, chunk.DataType())
			}
			vals = append(vals, col.Float64Values()...)
		}
		t.ColumnNames = append(t.ColumnNames, name)
		t.Columns[name] = vals
	}
	return t, nil
}

func timestampSeconds(v arrow.Timestamp, unit arrow.TimeUnit) float64 {
	switch unit {
	case arrow.Second:
		return float64(v)
	case arrow.Millisecond:
		return float64(v) / 1e3
	case arrow.Microsecond:
		return float64(v) / 1e6
	default:
		return float64(v) / 1e9
	}
}
