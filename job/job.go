// Package job loads window jobs from YAML.
//
// A job names an input (a Parquet file or glob) and a list of window
// expressions. Each expression pairs a function with a window definition:
//
//	input: data/*.parquet
//	windows:
//	  - name: running_total
//	    function: {kind: sum, column: amount}
//	    partition_by: [account]
//	    order_by: [{column: ts}]
//	    frame: {mode: rows, start: {type: unbounded_preceding}, end: {type: current_row}}
//
// Load only parses; Exprs validates the expressions against a window.Builder.
package job

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/vegasq/winframe/window"
)

// Job is a parsed job file.
type Job struct {
	// Input is a Parquet file path or glob pattern
	Input string `yaml:"input,omitempty" json:"input,omitempty"`

	// Windows are evaluated in order and appended as columns
	Windows []Window `yaml:"windows" json:"windows"`
}

// Window is one named window expression.
type Window struct {
	Name           string             `yaml:"name" json:"name"`
	Function       window.FunctionDoc `yaml:"function" json:"function"`
	window.SpecDoc `yaml:",inline"`
}

// Load parses a job from r. Unknown keys are rejected.
func Load(r io.Reader) (*Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var j Job
	if err := dec.Decode(&j); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("job file is empty")
		}
		return nil, errors.Wrap(err, "failed to parse job YAML")
	}
	if len(j.Windows) == 0 {
		return nil, errors.New("job defines no windows")
	}
	return &j, nil
}

// LoadFile reads and parses the job file at path.
func LoadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read job file")
	}
	j, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return j, nil
}

// Exprs validates every window with b and returns them as engine
// expressions. Errors name the offending window and keep their
// window.ValidationError cause.
func (j *Job) Exprs(b window.Builder) ([]window.Expr, error) {
	exprs := make([]window.Expr, 0, len(j.Windows))
	seen := make(map[string]bool, len(j.Windows))
	for i, w := range j.Windows {
		if w.Name == "" {
			return nil, errors.Newf("windows[%d]: name is required", i)
		}
		if seen[w.Name] {
			return nil, errors.Newf("windows[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true

		fn, err := window.FunctionFromDoc(w.Function)
		if err != nil {
			return nil, errors.Wrapf(err, "windows[%d] %q", i, w.Name)
		}
		spec, err := b.FromDoc(w.SpecDoc)
		if err != nil {
			return nil, errors.Wrapf(err, "windows[%d] %q", i, w.Name)
		}
		exprs = append(exprs, window.Expr{Name: w.Name, Spec: spec, Func: fn})
	}
	return exprs, nil
}

// Normalize returns the job rebuilt from its validated expressions: null
// placement spelled out, intervals turned into offsets, lag/lead offsets made
// explicit and default frames left out.
func (j *Job) Normalize(b window.Builder) (*Job, error) {
	exprs, err := j.Exprs(b)
	if err != nil {
		return nil, err
	}
	out := &Job{Input: j.Input, Windows: make([]Window, len(exprs))}
	for i, e := range exprs {
		out.Windows[i] = Window{Name: e.Name, Function: e.Func.Doc(), SpecDoc: e.Spec.Doc()}
	}
	return out, nil
}

// Write encodes j as YAML.
func (j *Job) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(j); err != nil {
		return errors.Wrap(err, "failed to encode job")
	}
	return enc.Close()
}
