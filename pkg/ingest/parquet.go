package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

const parquetBatchSize = 4096

var (
	sourceColumnNames      = []string{"src", "source", "u", "from"}
	destinationColumnNames = []string{"dst", "target", "v", "to"}
)

// ReadParquet reads an edge list from a Parquet file. Endpoint columns are
// picked by name (src/source/u/from and dst/target/v/to, any case) and
// otherwise by position; rows with a null endpoint are skipped.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker) (*EdgeList, error) {
	reader, err := file.NewParquetReader(r)
	if err != nil {
		return nil, &IngestionError{Reason: "cannot read parquet footer", Err: err}
	}

	sc := reader.MetaData().Schema
	srcIdx, dstIdx, err := endpointColumns(sc)
	if err != nil {
		return nil, err
	}

	el := &EdgeList{}
	for rg := 0; rg < reader.NumRowGroups(); rg++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := reader.RowGroup(rg)
		src, err := readIntColumn(group, srcIdx, sc.Column(srcIdx))
		if err != nil {
			return nil, err
		}
		dst, err := readIntColumn(group, dstIdx, sc.Column(dstIdx))
		if err != nil {
			return nil, err
		}
		if len(src) != len(dst) {
			return nil, &IngestionError{Reason: fmt.Sprintf("row group %d: endpoint columns have %d and %d rows", rg, len(src), len(dst))}
		}
		for i := range src {
			if src[i].valid && dst[i].valid {
				el.add(src[i].v, dst[i].v)
			}
		}
	}
	if len(el.Edges) == 0 {
		return nil, &IngestionError{Reason: "no valid edges"}
	}
	return el, nil
}

// endpointColumns resolves the source and destination column indices
func endpointColumns(sc *schema.Schema) (int, int, error) {
	n := sc.NumColumns()
	if n < 2 {
		return -1, -1, &IngestionError{Reason: fmt.Sprintf("parquet schema has %d columns, need at least two", n)}
	}

	find := func(names []string) int {
		for i := 0; i < n; i++ {
			for _, name := range names {
				if strings.EqualFold(sc.Column(i).Name(), name) {
					return i
				}
			}
		}
		return -1
	}

	src, dst := find(sourceColumnNames), find(destinationColumnNames)
	if src < 0 || dst < 0 || src == dst {
		src, dst = 0, 1
	}
	for _, i := range []int{src, dst} {
		col := sc.Column(i)
		switch col.PhysicalType() {
		case parquet.Types.Int32, parquet.Types.Int64:
		default:
			return -1, -1, &IngestionError{Reason: fmt.Sprintf("column %q has type %s, need an integer type", col.Name(), col.PhysicalType())}
		}
		if col.MaxRepetitionLevel() > 0 {
			return -1, -1, &IngestionError{Reason: fmt.Sprintf("column %q is repeated", col.Name())}
		}
	}
	return src, dst, nil
}

type cell struct {
	v     int64
	valid bool
}

// readIntColumn reads one integer column chunk. Parquet packs the non-null
// values densely, so definition levels place them back on their rows.
func readIntColumn(group *file.RowGroupReader, idx int, col *schema.Column) ([]cell, error) {
	chunk, err := group.Column(idx)
	if err != nil {
		return nil, &IngestionError{Reason: fmt.Sprintf("column %q", col.Name()), Err: err}
	}

	unsigned := false
	if lt, ok := col.LogicalType().(schema.IntLogicalType); ok {
		unsigned = !lt.IsSigned()
	}
	maxDef := col.MaxDefinitionLevel()

	cells := make([]cell, 0, group.NumRows())
	defLvls := make([]int16, parquetBatchSize)
	values := make([]int64, parquetBatchSize)
	values32 := make([]int32, parquetBatchSize)

	for chunk.HasNext() {
		var (
			total int64
			read  int
		)
		switch r := chunk.(type) {
		case *file.Int64ColumnChunkReader:
			total, read, err = r.ReadBatch(parquetBatchSize, values, defLvls, nil)
			if err == nil && unsigned {
				for _, v := range values[:read] {
					if v < 0 {
						err = fmt.Errorf("value %d overflows int64", uint64(v))
						break
					}
				}
			}
		case *file.Int32ColumnChunkReader:
			total, read, err = r.ReadBatch(parquetBatchSize, values32, defLvls, nil)
			for i, v := range values32[:read] {
				if unsigned {
					values[i] = int64(uint32(v))
				} else {
					values[i] = int64(v)
				}
			}
		default:
			err = fmt.Errorf("unsupported column reader %T", chunk)
		}
		if err != nil {
			return nil, &IngestionError{Reason: fmt.Sprintf("column %q", col.Name()), Err: err}
		}

		next := 0
		for i := int64(0); i < total; i++ {
			if maxDef > 0 && defLvls[i] < maxDef {
				cells = append(cells, cell{})
				continue
			}
			cells = append(cells, cell{v: values[next], valid: true})
			next++
		}
	}
	return cells, nil
}
