package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	errors "github.com/pkg/errors"
	"www.velocidex.com/golang/dataframe/types"
)

// FromCSV reads a CSV stream into an in memory dataset. The first
// record names the columns. Cell types are sniffed per column over
// the whole file: a column where every non empty cell parses as an
// integer becomes Int64Type, then Float64Type, then BoolType,
// otherwise the cells stay strings. Empty cells read back as Null.
func FromCSV(reader io.Reader) (*InMemory, error) {
	csv_reader := csv.NewReader(reader)
	csv_reader.FieldsPerRecord = 0

	header, err := csv_reader.Read()
	if err == io.EOF {
		return nil, errors.New("FromCSV: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "FromCSV")
	}

	records := make([][]string, 0)
	for {
		record, err := csv_reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "FromCSV")
		}
		records = append(records, record)
	}

	result := newInMemory()
	result.count = int64(len(records))

	for column_idx, name := range header {
		cells := make([]string, 0, len(records))
		for _, record := range records {
			cells = append(cells, record[column_idx])
		}

		column_type := sniffCells(cells)
		values, err := convertCells(cells, column_type)
		if err != nil {
			return nil, errors.Wrapf(err, "FromCSV: column %v", name)
		}

		result.column_names = append(result.column_names, name)
		result.column_values[name] = values
		result.column_types[name] = column_type
	}

	return result, nil
}

// FromCSVFile is a convenience wrapper over FromCSV.
func FromCSVFile(filename string) (*InMemory, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "FromCSVFile")
	}
	defer fd.Close()

	result, err := FromCSV(fd)
	if err != nil {
		return nil, errors.Wrapf(err, "FromCSVFile %v", filename)
	}

	return result, nil
}

// Find the narrowest type which fits every non empty cell of the
// column.
func sniffCells(cells []string) types.ColumnType {
	all_int := true
	all_float := true
	all_bool := true
	seen := false

	for _, cell := range cells {
		if cell == "" {
			continue
		}
		seen = true

		if all_int {
			_, err := strconv.ParseInt(cell, 0, 64)
			if err != nil {
				all_int = false
			}
		}

		if all_float {
			_, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				all_float = false
			}
		}

		if all_bool {
			switch strings.ToLower(cell) {
			case "true", "false":
			default:
				all_bool = false
			}
		}
	}

	if !seen {
		return types.AnyType
	}

	if all_int {
		return types.Int64Type
	}
	if all_float {
		return types.Float64Type
	}
	if all_bool {
		return types.BoolType
	}
	return types.StringType
}

func convertCells(cells []string, column_type types.ColumnType) (
	[]types.Any, error) {
	result := make([]types.Any, 0, len(cells))

	for _, cell := range cells {
		if cell == "" {
			result = append(result, types.Null{})
			continue
		}

		switch column_type {
		case types.Int64Type:
			value, err := strconv.ParseInt(cell, 0, 64)
			if err != nil {
				return nil, err
			}
			result = append(result, value)

		case types.Float64Type:
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, err
			}
			result = append(result, value)

		case types.BoolType:
			result = append(result, strings.ToLower(cell) == "true")

		default:
			result = append(result, cell)
		}
	}

	return result, nil
}
