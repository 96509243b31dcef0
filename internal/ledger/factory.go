// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package ledger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
)

// Open creates the Store selected by configuration.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func Open(cfg config.LedgerConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path, logger), nil
	case "badger":
		return NewBadger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
