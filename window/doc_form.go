package window

import (
	"strings"
	"time"
)

// SpecDoc is the serializable form of a Spec, used by job files. Doc always
// produces the normalized form: null placement spelled out, offsets only on
// offset bounds, and no frame when the Spec relies on the default.
type SpecDoc struct {
	PartitionBy []string      `yaml:"partition_by,omitempty" json:"partition_by,omitempty"`
	OrderBy     []OrderKeyDoc `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	Frame       *FrameDoc     `yaml:"frame,omitempty" json:"frame,omitempty"`
}

// OrderKeyDoc is the serializable form of an OrderKey. Nulls is "first",
// "last" or empty for the default.
type OrderKeyDoc struct {
	Column string `yaml:"column" json:"column"`
	Desc   bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
	Nulls  string `yaml:"nulls,omitempty" json:"nulls,omitempty"`
}

// FrameDoc is the serializable form of a Frame. Mode is "rows" or "range".
type FrameDoc struct {
	Mode  string   `yaml:"mode" json:"mode"`
	Start BoundDoc `yaml:"start" json:"start"`
	End   BoundDoc `yaml:"end" json:"end"`
}

// BoundDoc is the serializable form of a Bound. Interval is an alternative to
// Offset for timestamp keys, written as a Go duration such as "90m".
type BoundDoc struct {
	Type     string  `yaml:"type" json:"type"`
	Offset   float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
	Interval string  `yaml:"interval,omitempty" json:"interval,omitempty"`
}

// Doc returns the normalized serializable form of s.
func (s Spec) Doc() SpecDoc {
	var d SpecDoc
	if len(s.partitionBy) > 0 {
		d.PartitionBy = s.PartitionBy()
	}
	for _, k := range s.orderBy {
		kd := OrderKeyDoc{Column: k.Column, Desc: k.Desc}
		switch k.Nulls {
		case NullsFirst:
			kd.Nulls = "first"
		case NullsLast:
			kd.Nulls = "last"
		}
		d.OrderBy = append(d.OrderBy, kd)
	}
	if s.explicit {
		d.Frame = &FrameDoc{
			Mode:  strings.ToLower(s.frame.Mode.String()),
			Start: boundDoc(s.frame.Start),
			End:   boundDoc(s.frame.End),
		}
	}
	return d
}

func boundDoc(b Bound) BoundDoc {
	bd := BoundDoc{Type: strings.ToLower(strings.ReplaceAll(b.Type.String(), " ", "_"))}
	if b.hasOffset() {
		bd.Offset = b.Offset
	}
	return bd
}

// FromDoc builds a Spec from its serializable form with the default Builder.
func FromDoc(d SpecDoc) (Spec, error) {
	return Builder{}.FromDoc(d)
}

// FromDoc builds a Spec from its serializable form. Building the Doc of a
// Spec yields an Equal Spec.
func (b Builder) FromDoc(d SpecDoc) (Spec, error) {
	keys := make([]OrderKey, 0, len(d.OrderBy))
	for _, kd := range d.OrderBy {
		k := OrderKey{Column: kd.Column, Desc: kd.Desc}
		switch strings.ToLower(strings.TrimSpace(kd.Nulls)) {
		case "":
		case "first":
			k.Nulls = NullsFirst
		case "last":
			k.Nulls = NullsLast
		default:
			return Spec{}, validationErrorf("order_by", "column %q: unknown nulls %q (want first or last)", kd.Column, kd.Nulls)
		}
		keys = append(keys, k)
	}

	var frame *Frame
	if d.Frame != nil {
		f, err := frameFromDoc(*d.Frame)
		if err != nil {
			return Spec{}, err
		}
		frame = &f
	}
	return b.Build(d.PartitionBy, keys, frame)
}

func frameFromDoc(fd FrameDoc) (Frame, error) {
	var f Frame
	switch strings.ToLower(strings.TrimSpace(fd.Mode)) {
	case "rows":
		f.Mode = Rows
	case "range":
		f.Mode = Range
	default:
		return Frame{}, validationErrorf("frame.mode", "unknown mode %q (want rows or range)", fd.Mode)
	}
	var err error
	if f.Start, err = boundFromDoc("frame.start", fd.Start); err != nil {
		return Frame{}, err
	}
	if f.End, err = boundFromDoc("frame.end", fd.End); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// ParseBoundType accepts names such as "unbounded_preceding", "current row"
// or "FOLLOWING".
func ParseBoundType(s string) (BoundType, bool) {
	norm := strings.ToUpper(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s)))
	for t, name := range boundTypeNames {
		if name == norm {
			return BoundType(t), true
		}
	}
	return 0, false
}

func boundFromDoc(field string, bd BoundDoc) (Bound, error) {
	t, ok := ParseBoundType(bd.Type)
	if !ok {
		return Bound{}, validationErrorf(field, "unknown bound type %q", bd.Type)
	}
	b := Bound{Type: t, Offset: bd.Offset}
	if bd.Interval != "" {
		if bd.Offset != 0 {
			return Bound{}, validationErrorf(field, "set offset or interval, not both")
		}
		dur, err := time.ParseDuration(bd.Interval)
		if err != nil {
			return Bound{}, validationErrorf(field, "bad interval %q: %v", bd.Interval, err)
		}
		b.Offset = dur.Seconds()
	}
	if !b.hasOffset() && b.Offset != 0 {
		return Bound{}, validationErrorf(field, "%s takes no offset", t)
	}
	return b, nil
}
