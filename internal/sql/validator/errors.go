package validator

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies semantic analysis failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	DuplicateAlias
	UnknownTableAlias
	AmbiguousTableAlias
	UnknownColumn
	UnresolvedColumnReference
	AmbiguousColumnReference
	AmbiguousAlias
	IncompatibleTypes
	WrongClauseType
	WrongOperandType
	IncomparableOperands
	UnknownFunction
	WrongArgumentType
	InvalidCast
	InvalidLiteral
	InvalidStarUsage
	InvalidOrdinal
	InvalidAggregateCall
	NestedAggregate
	NotProducedByAggregation
	HavingNotProducedByAggregation
	OrderByNotProducedByAggregation
	GroupByContainsAggregate
	DistinctWithAggregate
	AllDistinctParamsMustMatch
	AggregateInWhere
	NoFromClauseAggregation
	RequiresOnOrUsing
	UnknownUsingColumn
	UnknownJoinHint
	ConflictingJoinHint
	UnequalColumnCount
	DuplicateColumnAlias
	RecursiveReference
	TableNotFound
	DatabaseNotFound
	DuplicateColumn
	DuplicatePartitionColumn
	NotPartitionColumn
	MissingPartitionColumns
	PartitionOnUnpartitioned
	NonConstantPartitionValue
	TooFewSourceColumns
	TooManySourceColumns
	IncompatibleTargetType
	PossibleLossOfPrecision
	MissingRowKey
	UnsupportedOperation
	MissingPartitionSpec
	PartitionNotFound
	InvalidLoadPath
	FileFormatMismatch
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                     "Unknown",
	DuplicateAlias:                  "DuplicateAlias",
	UnknownTableAlias:               "UnknownTableAlias",
	AmbiguousTableAlias:             "AmbiguousTableAlias",
	UnknownColumn:                   "UnknownColumn",
	UnresolvedColumnReference:       "UnresolvedColumnReference",
	AmbiguousColumnReference:        "AmbiguousColumnReference",
	AmbiguousAlias:                  "AmbiguousAlias",
	IncompatibleTypes:               "IncompatibleTypes",
	WrongClauseType:                 "WrongClauseType",
	WrongOperandType:                "WrongOperandType",
	IncomparableOperands:            "IncomparableOperands",
	UnknownFunction:                 "UnknownFunction",
	WrongArgumentType:               "WrongArgumentType",
	InvalidCast:                     "InvalidCast",
	InvalidLiteral:                  "InvalidLiteral",
	InvalidStarUsage:                "InvalidStarUsage",
	InvalidOrdinal:                  "InvalidOrdinal",
	InvalidAggregateCall:            "InvalidAggregateCall",
	NestedAggregate:                 "NestedAggregate",
	NotProducedByAggregation:        "NotProducedByAggregation",
	HavingNotProducedByAggregation:  "HavingNotProducedByAggregation",
	OrderByNotProducedByAggregation: "OrderByNotProducedByAggregation",
	GroupByContainsAggregate:        "GroupByContainsAggregate",
	DistinctWithAggregate:           "DistinctWithAggregate",
	AllDistinctParamsMustMatch:      "AllDistinctParamsMustMatch",
	AggregateInWhere:                "AggregateInWhere",
	NoFromClauseAggregation:         "NoFromClauseAggregation",
	RequiresOnOrUsing:               "RequiresOnOrUsing",
	UnknownUsingColumn:              "UnknownUsingColumn",
	UnknownJoinHint:                 "UnknownJoinHint",
	ConflictingJoinHint:             "ConflictingJoinHint",
	UnequalColumnCount:              "UnequalColumnCount",
	DuplicateColumnAlias:            "DuplicateColumnAlias",
	RecursiveReference:              "RecursiveReference",
	TableNotFound:                   "TableNotFound",
	DatabaseNotFound:                "DatabaseNotFound",
	DuplicateColumn:                 "DuplicateColumn",
	DuplicatePartitionColumn:        "DuplicatePartitionColumn",
	NotPartitionColumn:              "NotPartitionColumn",
	MissingPartitionColumns:         "MissingPartitionColumns",
	PartitionOnUnpartitioned:        "PartitionOnUnpartitioned",
	NonConstantPartitionValue:       "NonConstantPartitionValue",
	TooFewSourceColumns:             "TooFewSourceColumns",
	TooManySourceColumns:            "TooManySourceColumns",
	IncompatibleTargetType:          "IncompatibleTargetType",
	PossibleLossOfPrecision:         "PossibleLossOfPrecision",
	MissingRowKey:                   "MissingRowKey",
	UnsupportedOperation:            "UnsupportedOperation",
	MissingPartitionSpec:            "MissingPartitionSpec",
	PartitionNotFound:               "PartitionNotFound",
	InvalidLoadPath:                 "InvalidLoadPath",
	FileFormatMismatch:              "FileFormatMismatch",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// AnalysisError reports a semantic failure. Message is the user-facing text.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
}

func (e *AnalysisError) Error() string {
	return e.Message
}

func errorf(kind ErrorKind, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of an analysis error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Kind, true
	}
	return KindUnknown, false
}

// IsKind reports whether err is an analysis error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
