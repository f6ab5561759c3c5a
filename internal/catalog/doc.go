// Package catalog holds the plant catalog domain: filter sets and their
// canonical encoding, category routing with forced filter overrides,
// pagination bookkeeping, domain records and the error taxonomy shared by the
// dispatcher and the stores.
package catalog
