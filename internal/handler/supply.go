package handler

import (
	"net/http"

	"github.com/zkBob/bob-circulating-supply/internal/supply"
)

// TotalSupply serves the aggregated supply as a plain-text decimal. Before
// the first successful polling cycle this is "0".
func TotalSupply(agg *supply.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(agg.Value().String()))
	}
}
