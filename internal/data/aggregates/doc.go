// Package aggregates owns transaction boundaries for the progression engine's write paths.
//
// Table-level repos from internal/data/repos are composed inside InTx; every mutation of one
// operation commits or rolls back together. Infrastructure failures are translated into the
// apierr taxonomy by MapError.
package aggregates
