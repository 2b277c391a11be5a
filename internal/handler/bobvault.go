package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zkBob/bob-circulating-supply/internal/bobvault"
)

// VaultUpload validates and stores a new vault snapshot for one chain. All
// outcomes are reported in-band with HTTP 200.
func VaultUpload(vaults *bobvault.Vaults, uploadToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, uploadToken) {
			writeJSON(w, UploadResponse{Status: statusIncorrectAuth})
			return
		}

		chain := chi.URLParam(r, "chain")
		if !vaults.Has(chain) {
			writeJSON(w, UploadResponse{Status: statusIncorrectChain})
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, UploadResponse{Status: statusIncorrectData})
			return
		}
		if err := vaults.Store(r.Context(), chain, payload); err != nil {
			writeJSON(w, UploadResponse{Status: statusIncorrectData})
			return
		}
		writeJSON(w, UploadResponse{Status: statusSuccess})
	}
}

// VaultPairs lists the tickers of one chain's latest snapshot. An unknown
// chain yields an empty list, not an error.
func VaultPairs(vaults *bobvault.Vaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chain := chi.URLParam(r, "chain")
		if !vaults.Has(chain) {
			writeJSON(w, []bobvault.PairOut{})
			return
		}
		writeJSON(w, vaults.Pairs(r.Context(), chain))
	}
}

// VaultTickers lists per-ticker market data of one chain's latest snapshot.
func VaultTickers(vaults *bobvault.Vaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chain := chi.URLParam(r, "chain")
		if !vaults.Has(chain) {
			writeJSON(w, []bobvault.TickerOut{})
			return
		}
		writeJSON(w, vaults.Tickers(r.Context(), chain))
	}
}

// VaultOrderbook serves one ticker's order book. Unknown chain or ticker
// yields an empty document.
func VaultOrderbook(vaults *bobvault.Vaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chain := chi.URLParam(r, "chain")
		if !vaults.Has(chain) {
			writeJSON(w, bobvault.OrderbookOut{})
			return
		}
		tickerID := r.URL.Query().Get("ticker_id")
		writeJSON(w, vaults.Orderbook(r.Context(), chain, tickerID))
	}
}

// VaultHistoricalTrades serves one side's trades with optional limit and time
// window. A side other than buy or sell yields an empty document.
func VaultHistoricalTrades(vaults *bobvault.Vaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chain := chi.URLParam(r, "chain")
		if !vaults.Has(chain) {
			writeJSON(w, bobvault.Trades{})
			return
		}

		q := r.URL.Query()
		side := q.Get("type")
		if side != "buy" && side != "sell" {
			writeJSON(w, bobvault.Trades{})
			return
		}

		tickerID := q.Get("ticker_id")
		limit := queryInt(q.Get("limit"), 0)
		startTime := queryInt64(q.Get("start_time"), bobvault.MinTimestamp)
		endTime := queryInt64(q.Get("end_time"), bobvault.MaxTimestamp)

		writeJSON(w, vaults.HistoricalTrades(r.Context(), chain, tickerID, side, limit, startTime, endTime))
	}
}

func queryInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryInt64(v string, fallback int64) int64 {
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
