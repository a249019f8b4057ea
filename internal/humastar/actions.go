package humastar

import (
	"strconv"
	"strings"
)

// Action is a link whose presence depends on resource state, emitted as an
// RFC 8288 Link header with method and title target attributes:
//
//	</api/v1/layers/soil-layer/toggle>; rel="show"; method="POST"; title="Show Soil Analysis"
type Action struct {
	Rel    string
	Href   string
	Method string
	Title  string
}

// Actor is implemented by response bodies that advertise actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats a as a Link header value. Empty attributes are omitted.
func (a Action) LinkHeader() string {
	var b strings.Builder
	b.WriteString("<" + a.Href + ">; rel=" + strconv.Quote(a.Rel))
	if a.Method != "" {
		b.WriteString("; method=" + strconv.Quote(a.Method))
	}
	if a.Title != "" {
		b.WriteString("; title=" + strconv.Quote(a.Title))
	}
	return b.String()
}
