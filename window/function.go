package window

import (
	"fmt"
	"strings"

	"github.com/vegasq/winframe/batch"
)

// Kind identifies a window function.
type Kind int

const (
	Sum Kind = iota
	Avg
	Min
	Max
	Count
	RowNumber
	Rank
	DenseRank
	NTile
	Lag
	Lead
	First
	Last
	NthValue
)

var kindNames = [...]string{
	Sum:       "sum",
	Avg:       "avg",
	Min:       "min",
	Max:       "max",
	Count:     "count",
	RowNumber: "row_number",
	Rank:      "rank",
	DenseRank: "dense_rank",
	NTile:     "ntile",
	Lag:       "lag",
	Lead:      "lead",
	First:     "first",
	Last:      "last",
	NthValue:  "nth_value",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a function name to its Kind. first_value and last_value are
// accepted as aliases.
func ParseKind(s string) (Kind, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "first_value":
		return First, true
	case "last_value":
		return Last, true
	case "average", "mean":
		return Avg, true
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

func (k Kind) valid() bool {
	return k >= Sum && k <= NthValue
}

// IsAggregate reports whether k folds its frame into one value.
func (k Kind) IsAggregate() bool {
	return k >= Sum && k <= Count
}

// AcceptsFrame reports whether k reads the frame. Ranking and offset
// functions look at the ordered partition instead.
func (k Kind) AcceptsFrame() bool {
	return k.IsAggregate() || k == First || k == Last || k == NthValue
}

func (k Kind) needsColumn() bool {
	switch k {
	case Sum, Avg, Min, Max, Lag, Lead, First, Last, NthValue:
		return true
	}
	return false
}

func (k Kind) takesColumn() bool {
	return k.needsColumn() || k == Count
}

// Function describes one window function call.
type Function struct {
	Kind Kind
	// Column is the input column. Empty for count(*) and ranking functions.
	Column string
	// Offset is the lag/lead distance in rows.
	Offset int
	// N is the bucket count for ntile and the 1-based position for nth_value.
	N int
	// Default is returned by lag/lead when the offset leaves the partition.
	Default interface{}
}

// Aggregate returns a frame aggregate such as sum(column). An empty column
// with Count means count(*).
func Aggregate(k Kind, column string) Function {
	return Function{Kind: k, Column: column}
}

// LagOf returns lag(column, offset).
func LagOf(column string, offset int) Function {
	return Function{Kind: Lag, Column: column, Offset: offset}
}

// LeadOf returns lead(column, offset).
func LeadOf(column string, offset int) Function {
	return Function{Kind: Lead, Column: column, Offset: offset}
}

// Validate checks the call's arguments. Failures are *ValidationError.
func (f Function) Validate() error {
	if !f.Kind.valid() {
		return validationErrorf("function", "unknown kind %d", f.Kind)
	}
	if f.Kind.needsColumn() && f.Column == "" {
		return validationErrorf("function", "%s needs a column", f.Kind)
	}
	if !f.Kind.takesColumn() && f.Column != "" {
		return validationErrorf("function", "%s takes no column", f.Kind)
	}
	switch f.Kind {
	case Lag, Lead:
		if f.Offset < 0 {
			return validationErrorf("function", "%s offset must not be negative, got %d", f.Kind, f.Offset)
		}
	case NTile:
		if f.N <= 0 {
			return validationErrorf("function", "ntile needs a positive bucket count, got %d", f.N)
		}
	case NthValue:
		if f.N <= 0 {
			return validationErrorf("function", "nth_value needs a positive position, got %d", f.N)
		}
	}
	if f.Default != nil && f.Kind != Lag && f.Kind != Lead {
		return validationErrorf("function", "%s takes no default value", f.Kind)
	}
	if f.Offset != 0 && f.Kind != Lag && f.Kind != Lead {
		return validationErrorf("function", "%s takes no offset", f.Kind)
	}
	if f.N != 0 && f.Kind != NTile && f.Kind != NthValue {
		return validationErrorf("function", "%s takes no n", f.Kind)
	}
	return nil
}

func (f Function) String() string {
	switch f.Kind {
	case Count:
		if f.Column == "" {
			return "count(*)"
		}
	case RowNumber, Rank, DenseRank:
		return f.Kind.String() + "()"
	case NTile:
		return fmt.Sprintf("ntile(%d)", f.N)
	case NthValue:
		return fmt.Sprintf("nth_value(%s, %d)", f.Column, f.N)
	case Lag, Lead:
		if f.Default != nil {
			return fmt.Sprintf("%s(%s, %d, %v)", f.Kind, f.Column, f.Offset, f.Default)
		}
		return fmt.Sprintf("%s(%s, %d)", f.Kind, f.Column, f.Offset)
	}
	return fmt.Sprintf("%s(%s)", f.Kind, f.Column)
}

// resultType returns the type of the output column given the input column,
// which is nil when the function takes none.
func (f Function) resultType(in *batch.Column) (batch.Type, error) {
	switch f.Kind {
	case RowNumber, Rank, DenseRank, NTile, Count:
		return batch.Int64, nil
	case Avg:
		if !in.Type().Numeric() {
			return 0, evaluationErrorf(f.String(), in.Name(), "avg needs a numeric column, got %s", in.Type())
		}
		return batch.Float64, nil
	case Sum:
		if !in.Type().Numeric() {
			return 0, evaluationErrorf(f.String(), in.Name(), "sum needs a numeric column, got %s", in.Type())
		}
		return in.Type(), nil
	}
	return in.Type(), nil
}

// FunctionDoc is the serializable form of a Function.
type FunctionDoc struct {
	Kind    string      `yaml:"kind" json:"kind"`
	Column  string      `yaml:"column,omitempty" json:"column,omitempty"`
	Offset  *int        `yaml:"offset,omitempty" json:"offset,omitempty"`
	N       int         `yaml:"n,omitempty" json:"n,omitempty"`
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}

// FunctionFromDoc builds and validates a Function. lag and lead default to an
// offset of 1.
func FunctionFromDoc(d FunctionDoc) (Function, error) {
	k, ok := ParseKind(d.Kind)
	if !ok {
		return Function{}, validationErrorf("function", "unknown function %q", d.Kind)
	}
	f := Function{Kind: k, Column: d.Column, N: d.N, Default: d.Default}
	if d.Offset != nil {
		if k != Lag && k != Lead {
			return Function{}, validationErrorf("function", "%s takes no offset", k)
		}
		f.Offset = *d.Offset
	} else if k == Lag || k == Lead {
		f.Offset = 1
	}
	if err := f.Validate(); err != nil {
		return Function{}, err
	}
	return f, nil
}

// Doc returns the serializable form of f.
func (f Function) Doc() FunctionDoc {
	d := FunctionDoc{Kind: f.Kind.String(), Column: f.Column, N: f.N, Default: f.Default}
	if f.Kind == Lag || f.Kind == Lead {
		off := f.Offset
		d.Offset = &off
	}
	return d
}
