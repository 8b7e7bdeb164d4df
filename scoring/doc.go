/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package scoring turns raw judge results into comparable numbers.
//
// Each judge's category scores collapse to an overall score with
// [OverallScore]. Because judges calibrate differently, [Normalize] rescales
// every judge's overall scores across projects onto a shared curve centered
// at 5.5, and [CompositeScore] combines the normalized values into a single
// ranking key. [DetectOutliers] then looks for projects that stand out
// globally, on a single dimension, or through an unusual scoring shape.
package scoring
