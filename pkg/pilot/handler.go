package pilot

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Commander is the part of Server the HTTP relay uses.
type Commander interface {
	Send(line string) error
	Status() Status
	Subscribe() (<-chan Event, func())
}

var _ Commander = (*Server)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler returns the HTTP relay:
//
//	GET /cmd?cmd=<line>  forward a command line to the car
//	GET /status          connection state as JSON
//	GET /ws              websocket of reply lines; text messages are sent as commands
func Handler(c Commander) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/cmd", cmdHandler(c))
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, c.Status())
	})
	r.Get("/ws", wsHandler(c))

	return r
}

func cmdHandler(c Commander) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := strings.TrimSpace(r.URL.Query().Get("cmd"))
		if cmd == "" {
			render.Status(r, http.StatusBadRequest)
			render.PlainText(w, r, "ERR missing cmd")
			return
		}
		if err := c.Send(cmd); err != nil {
			log.Printf("Relay of %q failed: %v", cmd, err)
			render.Status(r, http.StatusServiceUnavailable)
			render.PlainText(w, r, "ERR send failed")
			return
		}
		render.PlainText(w, r, "OK")
	}
}

func wsHandler(c Commander) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		defer conn.Close()

		events, cancel := c.Subscribe()
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				line := strings.TrimSpace(string(msg))
				if line == "" {
					continue
				}
				if err := c.Send(line); err != nil {
					log.Printf("Relay of %q failed: %v", line, err)
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind != EventReply {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(ev.Line)); err != nil {
					log.Println("write:", err)
					return
				}
			}
		}
	}
}
