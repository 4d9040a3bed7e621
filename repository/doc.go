// Package repository provides a generic Bun repository for CRUD, predicate
// filtered listing, upsert and pagination, plus the PageOf helper that
// decides when a page needs a separate count query.
package repository
