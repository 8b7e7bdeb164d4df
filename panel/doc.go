/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package panel defines the data model shared by every stage of an
// evaluation run: the projects under review, the judging plan and its judges,
// and the structured results judges produce.
//
// JSON field names are part of the on-disk checkpoint and results format and
// must not change.
package panel
