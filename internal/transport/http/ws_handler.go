package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/auth"
	"quiz-cricket-service/internal/domain"
)

type WSHandler struct {
	service  *app.MatchService
	auth     *auth.Service
	upgrader websocket.Upgrader
}

// NewWSHandler builds the websocket endpoint. authSvc may be nil, in
// which case every stage is open.
func NewWSHandler(service *app.MatchService, authSvc *auth.Service) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    authSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	TeamAName    string                 `json:"teamAName"`
	TeamBName    string                 `json:"teamBName"`
	PlayersA     []string               `json:"playersA"`
	PlayersB     []string               `json:"playersB"`
	BattingFirst domain.TeamSide        `json:"battingFirst"`
	Stage        domain.TournamentStage `json:"tournamentStage"`
}

type startedPayload struct {
	MatchID string `json:"matchId"`
	Resumed bool   `json:"resumed"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type ballPayload struct {
	BallID int `json:"ballId"`
}

type answerPayload struct {
	Choice int `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request to a websocket and drives one match
// connection. The client either reattaches with ?matchId=... or sends a
// start message as its first command.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	matchID := r.URL.Query().Get("matchId")
	var cancelSub func()
	var claims *auth.Claims
	if h.auth != nil {
		var err error
		claims, err = h.auth.Verify(r.URL.Query().Get("token"))
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid or missing token"}}
			close(send)
			<-writerDone
			return
		}
	}

	attach := func(id string) bool {
		updates, cancel, err := h.service.Subscribe(r.Context(), id)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return false
		}
		matchID = id
		cancelSub = cancel
		go func() {
			defer close(updatesDone)
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: update.Snapshot}:
					case <-closeSignals:
						return
					}
					if update.Outcome != nil {
						select {
						case send <- outboundMessage[any]{Type: "outcome", Payload: update.Outcome}:
						case <-closeSignals:
							return
						}
					}
				case <-closeSignals:
					return
				}
			}
		}()
		return true
	}

	if matchID != "" {
		if !attach(matchID) {
			close(send)
			<-writerDone
			return
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if cancelSub != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "match already started"}}
				continue
			}
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}}
				continue
			}
			stage := payload.Stage
			if stage == "" {
				stage = domain.StageGroup
			}
			if claims != nil && !claims.Allows(stage) {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "stage not unlocked"}}
				continue
			}
			snap, resumed, err := h.service.CreateMatch(r.Context(), app.NewMatchParams{
				TeamAName:    payload.TeamAName,
				TeamBName:    payload.TeamBName,
				PlayersA:     payload.PlayersA,
				PlayersB:     payload.PlayersB,
				BattingFirst: payload.BattingFirst,
				Stage:        payload.Stage,
			})
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "started", Payload: startedPayload{MatchID: snap.MatchID, Resumed: resumed}}
			attach(snap.MatchID)
		case "selectBatter":
			if !h.requireMatch(send, cancelSub) {
				continue
			}
			var payload indexPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectBatter payload"}}
				continue
			}
			if err := h.service.SelectBatter(matchID, payload.Index); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "selectBowler":
			if !h.requireMatch(send, cancelSub) {
				continue
			}
			var payload indexPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectBowler payload"}}
				continue
			}
			if err := h.service.SelectBowler(matchID, payload.Index); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "selectBall":
			if !h.requireMatch(send, cancelSub) {
				continue
			}
			var payload ballPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectBall payload"}}
				continue
			}
			if err := h.service.SelectBall(r.Context(), matchID, payload.BallID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "answer":
			if !h.requireMatch(send, cancelSub) {
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := h.service.Answer(r.Context(), matchID, payload.Choice); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	if cancelSub != nil {
		cancelSub()
	}
	close(closeSignals)
	if cancelSub != nil {
		<-updatesDone
	}
	close(send)
	<-writerDone
}

func (h *WSHandler) requireMatch(send chan outboundMessage[any], cancelSub func()) bool {
	if cancelSub == nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no match started"}}
		return false
	}
	return true
}
