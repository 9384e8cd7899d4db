// Package notify exposes the notification engine over HTTP: a JSON REST
// surface for reading and managing notifications and push subscriptions,
// and a WebSocket endpoint for realtime delivery.
//
// REST routes (mount under /api/notifications):
//
//	GET  /vapid          public VAPID key for push registration
//	POST /subscribe      upsert a push subscription (auth optional)
//	POST /unsubscribe    remove subscriptions by endpoint or user
//	GET  /               paginated notification list (auth required)
//	GET  /unread-count   unread badge count (auth required)
//	PUT  /{id}/read      mark one notification read (auth required)
//
// The WebSocket endpoint authenticates with a "token" query parameter and
// pushes frames shaped as {"event": ..., "payload": ...}.
package notify
