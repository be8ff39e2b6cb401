package dataset

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// parquetChunkSize is the row group length used for parquet export.
const parquetChunkSize = 64 * 1024

// WriteCSV writes d as comma-separated text with a header row. Missing cells
// are written empty so the file parses back to the same shape.
func (d *Dataset) WriteCSV(w io.Writer) error {
	rec := d.Record()
	defer rec.Release()

	cw := csv.NewWriter(w, d.schema, csv.WithHeader(true), csv.WithNullWriter(""))
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return cw.Error()
}

// WriteParquet writes d as a single snappy-compressed parquet file.
func (d *Dataset) WriteParquet(w io.Writer) error {
	rec := d.Record()
	defer rec.Release()

	tbl := array.NewTableFromRecords(d.schema, []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	if err := pqarrow.WriteTable(tbl, w, parquetChunkSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}
