package router

import (
	"encoding/json"
	"net/http"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// Catalog is the read side of the payment registry.
type Catalog interface {
	Ready() bool
	DefaultType() processor.Type
	GetAvailableProcessors() []processor.Type
	GetProcessor(t processor.Type) (processor.Processor, error)
}

type capabilitiesView struct {
	Recurring      bool     `json:"recurring"`
	Refunds        bool     `json:"refunds"`
	PartialRefunds bool     `json:"partial_refunds"`
	Customers      bool     `json:"customers"`
	PaymentMethods bool     `json:"payment_methods"`
	Webhooks       bool     `json:"webhooks"`
	Currencies     []string `json:"currencies"`
	MethodTypes    []string `json:"method_types"`
}

type processorView struct {
	Type         processor.Type   `json:"type"`
	Default      bool             `json:"default"`
	Capabilities capabilitiesView `json:"capabilities"`
}

func health(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok", "payments": "disabled"}
		if catalog != nil {
			resp["payments"] = "initializing"
			if catalog.Ready() {
				resp["payments"] = "ready"
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listProcessors(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !catalog.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "payment processors are not initialized"})
			return
		}
		def := catalog.DefaultType()
		out := make([]processorView, 0)
		for _, t := range catalog.GetAvailableProcessors() {
			p, err := catalog.GetProcessor(t)
			if err != nil {
				continue
			}
			out = append(out, processorView{Type: t, Default: t == def, Capabilities: toCapabilitiesView(p.Capabilities())})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"default":    def,
			"processors": out,
		})
	}
}

func toCapabilitiesView(c processor.Capabilities) capabilitiesView {
	methods := make([]string, 0, len(c.PaymentMethodTypes))
	for _, m := range c.PaymentMethodTypes {
		methods = append(methods, string(m))
	}
	currencies := c.Currencies
	if currencies == nil {
		currencies = []string{}
	}
	return capabilitiesView{
		Recurring:      c.Recurring,
		Refunds:        c.Refunds,
		PartialRefunds: c.PartialRefunds,
		Customers:      c.Customers,
		PaymentMethods: c.PaymentMethods,
		Webhooks:       c.Webhooks,
		Currencies:     currencies,
		MethodTypes:    methods,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
