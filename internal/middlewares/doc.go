// Package middlewares holds the HTTP middleware stack of the portal:
// request ids, panic recovery and access logging.
//
//	app, err := web.New(
//	    web.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.AccessLog(),
//	        middlewares.Recover(),
//	    ),
//	)
//
// RequestID must come first so later middleware and handlers log with the
// id attached; pair it with RequestIDExtractor when building the logger.
package middlewares
