package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsPeriod is how often the stream pushes a position sample.
const wsPeriod = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	// the daemon lives on a trusted LAN and the page may be served from
	// a different host than the one in the URL bar
	CheckOrigin: func(r *http.Request) bool { return true },
}

// positionSample is one frame of the stream.
type positionSample struct {
	Az       int `json:"az"`
	El       int `json:"el"`
	TargetAz int `json:"targetAz"`
	TargetEl int `json:"targetEl"`
}

// PositionStream upgrades the connection to a websocket and pushes the
// physical position and targets on a fixed cadence until the peer hangs up.
func (w *Wrapper) PositionStream(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Println("web: upgrade:", err)
		return
	}
	defer conn.Close()

	// drain control frames so close from the peer is noticed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(wsPeriod)
	defer tick.Stop()
	for {
		<-tick.C
		az, el := w.store.Position()
		tAz, tEl := w.store.Targets()
		s := positionSample{Az: az, El: el, TargetAz: tAz, TargetEl: tEl}
		conn.SetWriteDeadline(time.Now().Add(wsPeriod))
		if err := conn.WriteJSON(s); err != nil {
			return
		}
	}
}
