// Package comic turns stored reading texts into illustrated comic scripts.
//
// A [Service] renders the script prompt for a story, sends it through a
// [Generator] (normally a *client.Client with its middleware chain), recovers
// and normalizes the panel list from the reply and persists it. Uploaded
// panel images are written to disk and linked back into the stored panels.
//
// Errors wrap the sentinels of this package, extract and panel, and
// store.ErrNotFound; [UserMessage] maps them to end-user text.
package comic
