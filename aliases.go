package dataframe

import (
	"www.velocidex.com/golang/dataframe/types"
)

// Aliases to public types.
type Any = types.Any
type Null = types.Null

type ColumnReader = types.ColumnReader
type ReaderCloner = types.ReaderCloner
type ColumnType = types.ColumnType

type Throttler = types.Throttler

const (
	AnyType     = types.AnyType
	BoolType    = types.BoolType
	Int64Type   = types.Int64Type
	Float64Type = types.Float64Type
	StringType  = types.StringType
	SliceType   = types.SliceType
)
