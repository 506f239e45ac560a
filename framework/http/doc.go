// Package http provides response helpers shared by the diagnostics handlers.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    res := gohttp.NewResponse(w)
//	    res.Success(map[string]any{"services": 3})  // 200 {"data": {...}}
//	    res.NotFound()                               // 404 {"message": "Not found."}
//	    res.Text(200, "text/plain", "ok")
//	}
package http
