package service

import "fmt"

// UnknownLayerError is reported when a toggle names a layer that does not exist.
type UnknownLayerError struct {
	ID string
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("layer with ID %q not found", e.ID)
}

// MalformedRecordError is reported when a point, area or layer is missing a
// required field or carries an invalid value.
type MalformedRecordError struct {
	Kind   string // "point", "area" or "layer"
	Index  int    // position in the batch, -1 when unknown
	ID     string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	where := e.Kind
	if e.ID != "" {
		where = fmt.Sprintf("%s %q", e.Kind, e.ID)
	} else if e.Index >= 0 {
		where = fmt.Sprintf("%s #%d", e.Kind, e.Index)
	}
	return fmt.Sprintf("malformed %s: %s %s", where, e.Field, e.Reason)
}
