package server

import (
	"net/http"

	"github.com/rs/cors"
)

func NewRouter(chatServer *ChatServer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", chatServer.Connect)
	mux.HandleFunc("GET /rooms", chatServer.Rooms)

	return mux
}

func NewHTTPServer(addr string, allowedOrigin string, chatServer *ChatServer) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
	})

	return &http.Server{
		Addr:    addr,
		Handler: c.Handler(NewRouter(chatServer)),
	}
}
