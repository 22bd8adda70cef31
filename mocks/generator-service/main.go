// Command generator-service is a stand-in W-3 form generator for local
// development and e2e runs. It fills a minimal form from the exchange
// payload: exchanges carrying an api_number succeed, everything else is
// rejected the way the real generator rejects incomplete exchanges.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	contract "wellfile/contracts/generator"
)

type exchangeFields struct {
	APINumber string          `json:"api_number"`
	WellName  string          `json:"well_name"`
	Plugs     json.RawMessage `json:"plugs,omitempty"`
}

func main() {
	addr := ":9090"
	if v := os.Getenv("GENERATOR_ADDR"); v != "" {
		addr = v
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", handleGenerate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log.Printf("mock generator-service listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req contract.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	var fields exchangeFields
	if err := json.Unmarshal(req.Exchange, &fields); err != nil || fields.APINumber == "" {
		writeJSON(w, contract.GenerateResponse{
			Success: false,
			Reason:  "exchange missing api_number",
		})
		return
	}

	form := map[string]any{
		"form_type":  "W-3",
		"api_number": fields.APINumber,
		"well_name":  fields.WellName,
	}
	if len(fields.Plugs) > 0 {
		form["plugs"] = fields.Plugs
	}
	doc, err := json.Marshal(form)
	if err != nil {
		http.Error(w, "form encoding failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, contract.GenerateResponse{
		Success:        true,
		Form:           doc,
		NaturalKeyHint: fields.APINumber,
		WellNameHint:   fields.WellName,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
