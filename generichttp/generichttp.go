// Package generichttp defines the route table plumbing and typed payloads
// shared by the HTTP surfaces of the daemon.
package generichttp

import (
	"encoding/json"
	"go/types"
	"net/http"

	"github.com/go-chi/chi"
)

// MethodPath is a method, path pair that keys a route table.
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps method, path pairs to handlers.
type RouteTable map[MethodPath]http.HandlerFunc

// Endpoints lists the paths in the table.
func (rt RouteTable) Endpoints() []string {
	endpoints := make([]string, 0, len(rt))
	for mp := range rt {
		endpoints = append(endpoints, mp.Path)
	}
	return endpoints
}

// Bind attaches every route in the table to the router.
func (rt RouteTable) Bind(r chi.Router) {
	for mp, handler := range rt {
		r.Method(mp.Method, mp.Path, handler)
	}
}

// HTTPer is an object which exposes a route table of its functionality.
type HTTPer interface {
	RT() RouteTable
}

// IntT is a JSON body of {'int': value}
type IntT struct {
	Int int `json:"int"`
}

// FloatT is a JSON body of {'f64': value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// StrT is a JSON body of {'str': value}
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a JSON body of {'bool': value}
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload is a singular basic type value to be returned to a client
type HumanPayload struct {
	// T holds the type of the data
	T types.BasicKind

	// Int holds an int
	Int int

	// Float holds a float64
	Float float64

	// Bool holds a bool
	Bool bool

	// String holds a string
	String string
}

// EncodeAndRespond writes the payload to the response as JSON keyed by its
// type, mirroring the request body shapes above.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var err error
	switch hp.T {
	case types.Int:
		err = json.NewEncoder(w).Encode(IntT{Int: hp.Int})
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	case types.String:
		err = json.NewEncoder(w).Encode(StrT{Str: hp.String})
	default:
		http.Error(w, "unsupported payload type", http.StatusInternalServerError)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
