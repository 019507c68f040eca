package main

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status       string    `json:"status"`
	Wallet       string    `json:"wallet"`
	RPCEndpoints int       `json:"rpcEndpoints"`
	TipStreamAge string    `json:"tipStreamAge,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	Uptime       string    `json:"uptime"`
}
