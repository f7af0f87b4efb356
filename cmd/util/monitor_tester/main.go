package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	baseURL = "http://127.0.0.1:49453"
	wsURL   = "ws://127.0.0.1:49453/ws"
)

// Tails run status updates from a running Retouch instance. With -start it
// kicks off a batch run first.
func main() {
	startFolder := flag.String("start", "", "folder to start a batch run on before tailing")
	flag.Parse()

	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		log.Fatalf("Monitor API not reachable, is Retouch running with the API enabled? %v", err)
	}
	resp.Body.Close()

	if *startFolder != "" {
		body, _ := json.Marshal(map[string]string{"folder": *startFolder})
		resp, err := http.Post(baseURL+"/run/start", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("Failed to start run: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Start run rejected: %s", resp.Status)
		}
		log.Printf("Started run on %s", *startFolder)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Dial error: %v", err)
	}
	defer conn.Close()
	log.Println("Connected. Waiting for run updates...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("Update: %s", msg)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("Close error:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
