// Package notebook holds the small diagnostics the class notebooks print at the
// top of each session: toolchain versions and a summary of a tensor.
package notebook

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/gomlx/gomlx/types/tensors"
)

// Fields supported by PrintTensorInfo, in print order.
var Fields = []string{"Tensor", "Type", "dtype", "Dimension", "Shape"}

const gomlxModule = "github.com/gomlx/gomlx"

// TensorTypeError is returned when PrintTensorInfo gets a nil tensor.
type TensorTypeError struct{}

func (e *TensorTypeError) Error() string {
	return fmt.Sprintf("the input must be a non-nil %T", (*tensors.Tensor)(nil))
}

// InvalidFieldError names a field PrintTensorInfo does not know.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %s is not a valid field. Valid fields are: %s", e.Field, strings.Join(Fields, ", "))
}

// PrintTensorInfo writes the requested fields of t to w, all of them when
// fields is empty. Every field is validated before anything is written.
func PrintTensorInfo(w io.Writer, t *tensors.Tensor, fields ...string) error {
	if t == nil {
		return &TensorTypeError{}
	}
	for _, field := range fields {
		if !slices.Contains(Fields, field) {
			return &InvalidFieldError{Field: field}
		}
	}
	if len(fields) == 0 {
		fields = Fields
	}

	shape := t.Shape()
	for _, field := range fields {
		var err error
		switch field {
		case "Tensor":
			_, err = fmt.Fprintf(w, "%v\n", t)
		case "Type":
			_, err = fmt.Fprintf(w, "%-12s %T\n", field, t)
		case "dtype":
			_, err = fmt.Fprintf(w, "%-12s %v\n", field, t.DType())
		case "Dimension":
			_, err = fmt.Fprintf(w, "%-12s %d\n", field, shape.Rank())
		case "Shape":
			_, err = fmt.Fprintf(w, "%-12s %v\n", field, shape.Dimensions)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PrintGoVersion writes the version of the Go toolchain the binary was built with.
func PrintGoVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	return err
}

// PrintGomlxVersion writes the gomlx module version linked into the binary.
func PrintGomlxVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "gomlx version: %s\n", GomlxVersion())
	return err
}

// GomlxVersion reads the gomlx version from the build info, or "unknown".
func GomlxVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path != gomlxModule {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		return dep.Version
	}
	return "unknown"
}
