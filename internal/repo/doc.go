// Package repo provides one repository per entity kind.
//
// Every repository exposes the same five operations: Add, Get, List,
// Update and Delete. Repositories validate records before touching the
// backend and surface backend rejections unchanged as *store.Error values.
// Ownership checks (who may edit a post) are the caller's job.
//
// Repositories hold a reference to the store and are cheap to copy. When
// called inside store.Transaction they run in that transaction.
package repo
