package browse

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Huchangzhi/ShellChrome/browse/element"
)

// RegisterHTTP mounts the read/act endpoints on a chi router. The HTTP
// surface mirrors the MCP tools for operators who drive the session with
// plain requests.
func RegisterHTTP(r chi.Router, eng Engine) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pages", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, eng.Pages(req.Context()))
		})

		r.Post("/snapshot", func(w http.ResponseWriter, req *http.Request) {
			text, err := eng.TakeSnapshot(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"snapshot": text})
		})

		r.Post("/scan", func(w http.ResponseWriter, req *http.Request) {
			recs, err := eng.ScanElements(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"elements": recs,
				"rendered": element.RenderRecords(recs),
			})
		})

		r.Get("/content", func(w http.ResponseWriter, req *http.Request) {
			md, err := eng.PageContent(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"content": md})
		})

		r.Get("/screenshot", func(w http.ResponseWriter, req *http.Request) {
			data, err := eng.Screenshot(req.Context(), "")
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorStatus(err error) int {
	if element.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}
