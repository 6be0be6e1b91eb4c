// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements mmudzictl, the operator command-line client of
// mmudzi-server.
//
// Every command is a thin call through [adapter.OperatorAPI] followed by
// text or JSON rendering. The token command runs locally and signs an
// operator token with the configured key.
package client
