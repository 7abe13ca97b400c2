package server

import "github.com/HershyOrg/dtrader/store"

// Request is one client message on /ws.
type Request struct {
	Source string `json:"source"`
}

// Reply answers a Request. Results holds every statement that completed,
// even when Error is set.
type Reply struct {
	Results []Result `json:"results"`
	Error   string   `json:"error,omitempty"`
}

type Result struct {
	Statement string `json:"statement"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type ChartsResponse struct {
	Charts []store.ChartRecord `json:"charts"`
	Count  int                 `json:"count"`
}

type SymbolsResponse struct {
	Symbols []store.SymbolRecord `json:"symbols"`
	Count   int                  `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
