package web

// Handler declares routes on a router.
//
// Example:
//
//	type MailingHandler struct {
//	    users directory.Store
//	}
//
//	func (h *MailingHandler) Routes(r web.Router) {
//	    r.GET("/", h.index)
//	    r.POST("/sendmail", h.send)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the app's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
