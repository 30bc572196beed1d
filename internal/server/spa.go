package server

import (
	"net/http"
	"os"
	"path/filepath"
)

// handleSPA serves the hunt client from dir, falling back to index.html for
// any path that doesn't match a real file so client-side routes deep-link.
// This handler is also the router's not-found fallback, so unmatched writes
// get a plain 404 instead of the app shell.
func handleSPA(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}

		path := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
