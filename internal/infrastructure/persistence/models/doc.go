// Package models holds the GORM row types behind the repositories. Domain
// types carry no tags; each model converts with ToDomain and a
// <Model>FromDomain constructor.
//
// Money columns are BIGINT cents and calendar dates are DATE, matching the
// int64 *Cents and time.Time fields of the domain. Staged orders and their
// lines are written and read as one unit; ledger entries are append-only.
package models
