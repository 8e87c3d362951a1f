// Package navigation is the client-side routing core of the site shell.
//
// A Router owns a route table (literal paths and ":name" parametrized
// patterns), keeps an Env's history stack consistent with what it resolved,
// and turns same-origin link activations into navigations.
//
// # Environment
//
// The Router never reaches for globals. It is handed an Env at construction:
//
//	sess, _ := navigation.NewSession("http://localhost:3000/")
//	r := navigation.New(sess,
//	    navigation.WithRoute("/", home),
//	    navigation.WithRoute("/blog/:id", post),
//	    navigation.WithNotFound(notFound),
//	)
//
// New resolves the session's current path immediately without pushing a
// history entry, so routes given as options take part in that first
// resolution. Back and forward on the Session fire a pop-state event that the
// Router answers with Navigate(path, false).
//
// # Link activation
//
// Session.Activate dispatches an Intent for an html.Node. The Router walks up
// to the nearest anchor, and if the resolved href shares the document origin
// it prevents the default and navigates to the link's path. Anything else is
// left to the Session's default behaviour.
//
// # Content fragments
//
// LoadContent fetches a fragment relative to the document origin, rewrites the
// relative asset prefix and passes the text to a Sink. Failures are logged and
// routed to the not-found handler; they are never returned.
package navigation
