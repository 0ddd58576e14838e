package types

// These are the public types exposed to package clients.

// A generic value held in a dataset cell. Cells are dynamically typed
// - the reader reports a ColumnType as a hint but readers are free to
// return any value and consumers coerce as needed.
type Any interface{}

// The static type a reader advertises for a column. This is a hint
// used at booking time to reject obviously invalid requests (e.g. a
// Min() over a string column) before a scan starts.
type ColumnType int

const (
	// The reader can not (or does not want to) commit to a type.
	AnyType ColumnType = iota
	BoolType
	Int64Type
	Float64Type
	StringType
	SliceType
)

func (self ColumnType) String() string {
	switch self {
	case BoolType:
		return "bool"
	case Int64Type:
		return "int64"
	case Float64Type:
		return "float64"
	case StringType:
		return "string"
	case SliceType:
		return "slice"
	default:
		return "any"
	}
}

// Can values of this column type be coerced to a float64? AnyType
// columns are accepted optimistically - mismatches surface during the
// scan instead.
func (self ColumnType) Numeric() bool {
	switch self {
	case AnyType, BoolType, Int64Type, Float64Type:
		return true
	default:
		return false
	}
}

// A ColumnReader provides random access to the cells of a row
// oriented dataset. This is the only contract the engine has with the
// storage layer - anything which can name its columns and hand out
// cell values by (entry, column) can drive a scan.
//
// ReadValue must be safe for concurrent use unless the reader also
// implements ReaderCloner, in which case each worker calls
// CloneForWorker() and reads through its private clone.
type ColumnReader interface {
	// Total number of entries in the dataset.
	EntryCount() int64

	HasColumn(name string) bool

	// A type hint for the column. Readers which do not track types
	// simply return AnyType.
	ColumnType(name string) ColumnType

	// Fetch a single cell. A missing value is returned as Null{},
	// not as an error - errors are reserved for genuine read
	// failures and abort the scan.
	ReadValue(entry int64, name string) (Any, error)
}

// Readers holding per-cursor state (file handles, decompression
// buffers) implement this to give each scan worker a private reading
// context.
type ReaderCloner interface {
	CloneForWorker() ColumnReader
}
