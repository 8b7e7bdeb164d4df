/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params provides shared parameter extraction and error formatting
// utilities used by both Claude and Google tool implementations.
//
// This package contains the core logic that is common across AI providers,
// avoiding duplication between claudetool and googletool packages.
package params
