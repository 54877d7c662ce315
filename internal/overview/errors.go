package overview

import "fmt"

// InvalidConfigError reports a configuration field that fails validation.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// DataShapeError reports a configured or inferred signal whose required
// aggregate column is missing upstream. It always names the column.
type DataShapeError struct {
	Signal string
	Column string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("missing column %q for signal %q", e.Column, e.Signal)
}

// UnsupportedFormatError reports an overview request against a source
// format that overview building does not handle.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("overview building supports delimited text only, got format %q", e.Format)
}
