package usecase

import (
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveTransaction(domain.Direction, string, time.Duration) {}
func (NopMetrics) IncIdempotencyReplay()                                      {}
func (NopMetrics) IncCacheError(string)                                        {}
func (NopMetrics) IncWalletsCreated()                                          {}
