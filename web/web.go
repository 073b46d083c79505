// Package web serves the human-facing status/control surface: a rendered
// page that accepts AZ/EL query parameters, a small JSON axis API, a live
// position stream, and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"go/types"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamlab/gorotor/generichttp"
	"github.com/hamlab/gorotor/rotator"
)

var positionDegrees = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "gorotor_position_degrees",
	Help: "Current physical position per axis in degrees.",
}, []string{"axis"})

// Wrapper exposes a rotator.Store over HTTP.
type Wrapper struct {
	store *rotator.Store
	rt    generichttp.RouteTable
}

// NewWrapper returns a wrapper with the route table pre-configured.
func NewWrapper(store *rotator.Store) *Wrapper {
	w := &Wrapper{store: store}
	rt := generichttp.RouteTable{
		{Method: http.MethodGet, Path: "/"}:                   w.Index,
		{Method: http.MethodGet, Path: "/axis/{axis}/pos"}:    w.GetAxisPos,
		{Method: http.MethodPost, Path: "/axis/{axis}/pos"}:   w.SetAxisPos,
		{Method: http.MethodGet, Path: "/axis/{axis}/target"}: w.GetAxisTarget,
		{Method: http.MethodGet, Path: "/ws"}:                 w.PositionStream,
	}
	w.rt = rt
	return w
}

// RT satisfies the HTTPer interface.
func (w *Wrapper) RT() generichttp.RouteTable {
	return w.rt
}

// BuildMux binds the wrapper and the metrics endpoint to a chi router.
func BuildMux(w *Wrapper) chi.Router {
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	w.RT().Bind(root)
	root.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return root
}

// PublishMetrics refreshes the position gauges on the given period until
// the context is cancelled.
func (w *Wrapper) PublishMetrics(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = time.Second
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			az, el := w.store.Position()
			positionDegrees.WithLabelValues(rotator.AZ).Set(float64(az))
			positionDegrees.WithLabelValues(rotator.EL).Set(float64(el))
		}
	}
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>rotator</title></head>
<body>
<h1>Rotator</h1>
<form method="get" action="/">
<label>Azimuth <input name="AZ" value="{{.Az}}"></label>
<label>Elevation <input name="EL" value="{{.El}}"></label>
<input type="submit" value="Point">
</form>
<script>
// target state for client-side display; the mount may still be in motion
var target = {{.}};
</script>
</body>
</html>
`))

// Index applies any present AZ/EL parameters, then renders the page with
// the stored targets embedded.  The page shows targets, not physical
// position; a deliberate simplification for the human display.
func (w *Wrapper) Index(rw http.ResponseWriter, r *http.Request) {
	applyParams(r.URL.Query(), w.store)
	az, el := w.store.Targets()
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTmpl.Execute(rw, pageState{Az: az, El: el})
	if err != nil {
		log.Println("web: render index:", err)
	}
}

// pageState is the template data; in the script context it renders as the
// JSON target object.
type pageState struct {
	Az int `json:"az"`
	El int `json:"el"`
}

// applyParams is the query-parameter command syntax: AZ and EL are each an
// optional integer string, and each present parameter independently sets
// that axis's target.  Absent or non-integer parameters are no-ops, not
// zeroes.
func applyParams(v url.Values, store *rotator.Store) {
	for param, name := range map[string]string{"AZ": rotator.AZ, "EL": rotator.EL} {
		if !v.Has(param) {
			continue
		}
		deg, err := strconv.Atoi(v.Get(param))
		if err != nil {
			continue
		}
		store.SetTarget(name, deg)
	}
}

// canonAxis maps a URL axis parameter to a store axis name.
func canonAxis(s string) (string, bool) {
	switch strings.ToUpper(s) {
	case rotator.AZ:
		return rotator.AZ, true
	case rotator.EL:
		return rotator.EL, true
	}
	return "", false
}

// GetAxisPos returns the physical position of an axis in degrees.
func (w *Wrapper) GetAxisPos(rw http.ResponseWriter, r *http.Request) {
	name, ok := canonAxis(chi.URLParam(r, "axis"))
	if !ok {
		http.Error(rw, "unknown axis", http.StatusBadRequest)
		return
	}
	hp := generichttp.HumanPayload{T: types.Int, Int: w.store.CurrentDegrees(name)}
	hp.EncodeAndRespond(rw, r)
}

// GetAxisTarget returns the stored target of an axis in degrees.
func (w *Wrapper) GetAxisTarget(rw http.ResponseWriter, r *http.Request) {
	name, ok := canonAxis(chi.URLParam(r, "axis"))
	if !ok {
		http.Error(rw, "unknown axis", http.StatusBadRequest)
		return
	}
	hp := generichttp.HumanPayload{T: types.Int, Int: w.store.Target(name)}
	hp.EncodeAndRespond(rw, r)
}

// SetAxisPos stores a new target for an axis from a JSON body of
// {'int': degrees}.  Out-of-range values clamp.
func (w *Wrapper) SetAxisPos(rw http.ResponseWriter, r *http.Request) {
	name, ok := canonAxis(chi.URLParam(r, "axis"))
	if !ok {
		http.Error(rw, "unknown axis", http.StatusBadRequest)
		return
	}
	i := generichttp.IntT{}
	err := json.NewDecoder(r.Body).Decode(&i)
	defer r.Body.Close()
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.store.SetTarget(name, i.Int)
	rw.WriteHeader(http.StatusOK)
}
