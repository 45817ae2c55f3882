package serve_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/powerdesk/trade-report/internal/report"
	"github.com/powerdesk/trade-report/internal/serve"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHub_BroadcastSurvivesDeadClient(t *testing.T) {
	hub := serve.NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	live := dialHub(t, srv)
	defer live.Close()
	dead := dialHub(t, srv)

	metrics := report.KeyMetrics{
		DeliveryFrom: windowStart,
		DeliveryTo:   windowStart.Add(24 * time.Hour),
		GrossProfit:  decimal.NewFromInt(-180),
		Revenue:      decimal.NewFromInt(320),
		Costs:        decimal.NewFromInt(500),
		MWSold:       decimal.NewFromInt(4),
		MWBought:     decimal.NewFromInt(15),
	}

	// Drop one client without a close handshake, then keep broadcasting.
	// The hub must evict the dead connection and keep serving the live one.
	dead.UnderlyingConn().Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hub.BroadcastReport("build-1", metrics)
			case <-stop:
				return
			}
		}
	}()

	live.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 5; i++ {
		var msg serve.BuildMessage
		if err := live.ReadJSON(&msg); err != nil {
			t.Fatalf("live client lost the stream: %v", err)
		}
		if msg.Type != "report_built" {
			t.Errorf("type = %q, want report_built", msg.Type)
		}
		if msg.ReportID != "build-1" {
			t.Errorf("report_id = %q, want build-1", msg.ReportID)
		}
		if msg.GrossProfit != "-180" {
			t.Errorf("gross_profit = %q, want -180", msg.GrossProfit)
		}
	}
}
