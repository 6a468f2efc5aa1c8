//go:build e2e

package e2e

import (
	"fmt"
	"net/http"
)

// widgetPage is a debounced transliteration widget: the output follows the input
// after the debounce and unknown words pass through unchanged.
const widgetPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>widget</title></head>
<body>
<textarea aria-label="Input Your Singlish Text Here." placeholder="Input Your Singlish Text Here."></textarea>
<div class="output"></div>
<script>
const dict = {
  "api": "අපි", "heta": "හෙට", "hamuvemu": "හමුවෙමු",
  "passe": "පස්සේ", "kathaa": "කතා", "karamu": "කරමු",
};
const input = document.querySelector("textarea");
const out = document.querySelector("div.output");
const frozen = %t;
let timer;
input.addEventListener("input", () => {
  if (frozen) return;
  clearTimeout(timer);
  timer = setTimeout(() => {
    out.textContent = input.value.split(/\s+/).filter(Boolean).map((w) => dict[w] || w).join(" ");
  }, %d);
});
</script>
</body>
</html>`

// widgetHandler serves the live widget on / and a widget that never updates its output on /frozen.
func widgetHandler() http.Handler {
	mux := http.NewServeMux()
	serve := func(frozen bool) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprintf(w, widgetPage, frozen, debounce.Milliseconds())
		}
	}
	mux.HandleFunc("/", serve(false))
	mux.HandleFunc("/frozen", serve(true))
	return mux
}
