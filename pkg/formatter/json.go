package formatter

import (
	"fmt"
	"io"

	"github.com/younsl/costboard/pkg/utils"
)

// PrintJSON writes v as indented JSON
func PrintJSON(out io.Writer, v interface{}) error {
	s, err := utils.FormatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, s)
	return err
}
