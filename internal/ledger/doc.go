// Package ledger records host sessions in a local SQLite database so
// operators can see which descriptors are live and which hosts have exited.
//
// The schema is applied from embedded, ordered SQL migrations on Open.
package ledger
