package web_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hamlab/gorotor/rotator"
	"github.com/hamlab/gorotor/web"
)

func TestPositionStreamPushesSamples(t *testing.T) {
	w, store := newTestWrapper()
	srv := httptest.NewServer(web.BuildMux(w))
	defer srv.Close()
	store.SetTarget(rotator.AZ, 180)
	store.SetTarget(rotator.EL, 45)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var s struct {
		Az       int `json:"az"`
		El       int `json:"el"`
		TargetAz int `json:"targetAz"`
		TargetEl int `json:"targetEl"`
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&s); err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if s.TargetAz != 180 || s.TargetEl != 45 {
		t.Errorf("targets = (%d, %d), want (180, 45)", s.TargetAz, s.TargetEl)
	}
	// nothing has driven the axes, so physical position is still zero
	if s.Az != 0 || s.El != 0 {
		t.Errorf("position = (%d, %d), want (0, 0)", s.Az, s.El)
	}
}
